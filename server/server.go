// Package server implements the switchd HTTP daemon: the lifecycle
// API served over the unix socket and, optionally, TCP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/frobware/go-switchd/config"
	"github.com/frobware/go-switchd/lock"
	"github.com/frobware/go-switchd/manager"
	"github.com/frobware/go-switchd/metrics"
	"github.com/frobware/go-switchd/pal"
	"github.com/frobware/go-switchd/platform/model"
	"github.com/frobware/go-switchd/store/sqlite"
)

// shutdownGrace bounds how long in-flight requests may run after the
// serve context is cancelled.
const shutdownGrace = 5 * time.Second

// RunConfig configures the server daemon.
type RunConfig struct {
	Dirs         config.RuntimeDirs
	TCPAddress   string // Optional TCP address (e.g. "127.0.0.1:7001") for remote access
	PprofAddress string // Optional address for pprof HTTP server (e.g. "localhost:2026")
	Logger       *slog.Logger
	Config       config.Config

	// Platform is the lifecycle capability set to register. Nil
	// selects the built-in software model configured from
	// Config.Platform.
	Platform any
}

// Run starts the switchd daemon with the given configuration.
// This is the main entry point for the serve command.
// The context is used for cancellation - when cancelled, the server shuts down gracefully.
func Run(ctx context.Context, cfg RunConfig) error {
	dirs := cfg.Dirs

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	// Wrap with context-aware handler to extract op_id from context.
	// This must happen at the server level since op_id is generated here.
	logger = manager.WithOpIDHandler(logger)

	if err := dirs.EnsureDirectories(); err != nil {
		return fmt.Errorf("runtime directory setup failed: %w", err)
	}

	// The daemon holds the writer lock for its lifetime; local CLI
	// writers and second daemons block or fail rather than share the
	// store.
	return lock.Run(ctx, dirs.Lock(), func(ctx context.Context, _ lock.WriterScope) error {
		return run(ctx, dirs, cfg, logger)
	})
}

func run(ctx context.Context, dirs config.RuntimeDirs, cfg RunConfig, logger *slog.Logger) error {
	st, err := sqlite.New(ctx, dirs.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to open store at %s: %w", dirs.DBPath(), err)
	}
	defer st.Close()

	platform := cfg.Platform
	if platform == nil {
		opts := []model.Option{model.WithLogger(logger)}
		if cfg.Config.Platform.SysfsRoot != "" {
			opts = append(opts, model.WithSysfsRoot(cfg.Config.Platform.SysfsRoot))
		}
		if cfg.Config.Platform.CPUPortPrefix != "" {
			opts = append(opts, model.WithCPUPortPrefix(cfg.Config.Platform.CPUPortPrefix))
		}
		platform = model.New(opts...)
	}

	registry := pal.NewRegistry(logger)
	mgr := manager.New(dirs, st, registry, cfg.Config.Manager, logger)
	if err := mgr.RegisterPlatform(platform); err != nil {
		return fmt.Errorf("register platform: %w", err)
	}

	// Start pprof HTTP server if configured.
	if cfg.PprofAddress != "" {
		pprofListener, err := net.Listen("tcp", cfg.PprofAddress)
		if err != nil {
			return fmt.Errorf("pprof listen on %s: %w", cfg.PprofAddress, err)
		}
		pprofServer := &http.Server{}
		logger.Info("pprof HTTP server listening", "address", pprofListener.Addr().String())
		go func() {
			if err := pprofServer.Serve(pprofListener); err != nil && err != http.ErrServerClosed {
				logger.Error("pprof HTTP server failed", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			pprofServer.Close()
		}()
	} else {
		logger.Info("pprof HTTP server disabled")
	}

	tcpAddr := cfg.TCPAddress
	if tcpAddr == "" {
		tcpAddr = cfg.Config.Server.TCPAddress
	}

	srv := New(dirs, mgr, logger)
	return srv.serve(ctx, dirs.SocketPath(), tcpAddr)
}

// Server serves the lifecycle API over HTTP.
type Server struct {
	dirs      config.RuntimeDirs
	mgr       *manager.Manager
	logger    *slog.Logger
	opCounter atomic.Uint64
}

// New creates a server around an already-wired manager. The logger
// should already be wrapped with WithOpIDHandler by the caller.
func New(dirs config.RuntimeDirs, mgr *manager.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		dirs:   dirs,
		mgr:    mgr,
		logger: logger.With("component", "server"),
	}
}

// Handler returns the fully assembled HTTP handler: routes, op-id
// middleware, and request metrics.
func (s *Server) Handler() http.Handler {
	return metrics.InstrumentHandler(s.withOpID(s.routes()))
}

// serve starts the HTTP server on the given socket path and optionally on TCP.
func (s *Server) serve(ctx context.Context, socketPath, tcpAddr string) error {
	// Ensure socket directory exists
	socketDir := filepath.Dir(socketPath)
	if err := os.MkdirAll(socketDir, 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	// Remove existing socket file
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}

	unixListener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", socketPath, err)
	}
	defer unixListener.Close()

	if err := os.Chmod(socketPath, 0660); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	httpServer := &http.Server{Handler: s.Handler()}

	// Track errors from serving goroutines
	errChan := make(chan error, 2)

	go func() {
		s.logger.InfoContext(ctx, "switchd API listening", "socket", socketPath)
		if err := httpServer.Serve(unixListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("unix socket server: %w", err)
		}
	}()

	// Optionally start TCP listener for remote access
	if tcpAddr != "" {
		tcpListener, err := net.Listen("tcp", tcpAddr)
		if err != nil {
			httpServer.Close()
			return fmt.Errorf("failed to listen on TCP %s: %w", tcpAddr, err)
		}

		go func() {
			s.logger.InfoContext(ctx, "switchd API listening", "tcp", tcpAddr)
			if err := httpServer.Serve(tcpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("tcp server: %w", err)
			}
		}()
	}

	// Handle context cancellation for graceful shutdown
	go func() {
		<-ctx.Done()
		s.logger.InfoContext(ctx, "shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			httpServer.Close()
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		return nil
	case err := <-errChan:
		return err
	}
}

// withOpID assigns a monotonic operation id to each request and places
// it in the request context for the op-id log handler to pick up.
func (s *Server) withOpID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		opID := s.opCounter.Add(1)
		next.ServeHTTP(w, r.WithContext(manager.ContextWithOpID(r.Context(), opID)))
	})
}
