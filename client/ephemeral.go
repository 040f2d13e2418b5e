package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/frobware/go-switchd/config"
	"github.com/frobware/go-switchd/lock"
	"github.com/frobware/go-switchd/manager"
	"github.com/frobware/go-switchd/pal"
	"github.com/frobware/go-switchd/platform/model"
	"github.com/frobware/go-switchd/server"
	"github.com/frobware/go-switchd/store"
	"github.com/frobware/go-switchd/store/sqlite"
)

// lockAcquireTimeout bounds how long Open waits for the writer lock.
// A running daemon holds the lock for its whole life, so waiting
// longer merely delays the inevitable error.
const lockAcquireTimeout = 5 * time.Second

// ephemeralClient spawns an in-process HTTP server on a private Unix
// socket and connects a remote client to it. This ensures embedded
// commands use the same code path as remote clients, making the HTTP
// handlers the canonical implementation.
type ephemeralClient struct {
	// Client is the remote client connected to the in-process server;
	// every API operation is promoted from it.
	Client

	st         store.Store
	held       *lock.Held
	httpServer *http.Server
	socketPath string // cleaned up on Close
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// newEphemeral creates a Client that spawns an in-process HTTP server
// using a temporary Unix socket.
func newEphemeral(dirs config.RuntimeDirs, cfg config.Config, platform any, logger *slog.Logger) (Client, error) {
	if err := dirs.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("runtime directory setup failed: %w", err)
	}

	// The embedded client is a writer; it must not share the store
	// with a serving daemon.
	lockCtx, cancel := context.WithTimeout(context.Background(), lockAcquireTimeout)
	held, err := lock.Acquire(lockCtx, dirs.Lock())
	cancel()
	if err != nil {
		return nil, fmt.Errorf("acquire writer lock (is a daemon serving from %s?): %w", dirs.Base(), err)
	}

	st, err := sqlite.New(context.Background(), dirs.DBPath(), logger)
	if err != nil {
		held.Close()
		return nil, fmt.Errorf("open store at %s: %w", dirs.DBPath(), err)
	}

	if platform == nil {
		opts := []model.Option{model.WithLogger(logger)}
		if cfg.Platform.SysfsRoot != "" {
			opts = append(opts, model.WithSysfsRoot(cfg.Platform.SysfsRoot))
		}
		if cfg.Platform.CPUPortPrefix != "" {
			opts = append(opts, model.WithCPUPortPrefix(cfg.Platform.CPUPortPrefix))
		}
		platform = model.New(opts...)
	}

	registry := pal.NewRegistry(logger)
	mgr := manager.New(dirs, st, registry, cfg.Manager, logger)
	if err := mgr.RegisterPlatform(platform); err != nil {
		st.Close()
		held.Close()
		return nil, fmt.Errorf("register platform: %w", err)
	}

	srv := server.New(dirs, mgr, manager.WithOpIDHandler(logger))

	// Private socket; a unique name based on time and PID avoids
	// conflicts between concurrent embedded clients.
	socketPath := fmt.Sprintf("/tmp/switchd-ephemeral-%d-%d.sock", os.Getpid(), time.Now().UnixNano())
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		st.Close()
		held.Close()
		return nil, fmt.Errorf("listen on socket %s: %w", socketPath, err)
	}

	e := &ephemeralClient{
		st:         st,
		held:       held,
		httpServer: &http.Server{Handler: srv.Handler()},
		socketPath: socketPath,
		logger:     logger,
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("ephemeral server failed", "error", err)
		}
	}()

	remote, err := newRemote(socketPath, logger)
	if err != nil {
		e.teardown()
		return nil, fmt.Errorf("connect to ephemeral server: %w", err)
	}

	e.Client = remote
	return e, nil
}

// Close shuts down the ephemeral server and releases all resources,
// including the writer lock.
func (e *ephemeralClient) Close() error {
	if e.Client != nil {
		e.Client.Close()
	}
	e.teardown()
	return nil
}

func (e *ephemeralClient) teardown() {
	e.httpServer.Close()
	e.wg.Wait()
	if e.st != nil {
		e.st.Close()
	}
	e.held.Close()
	if err := os.Remove(e.socketPath); err != nil && !os.IsNotExist(err) {
		e.logger.Warn("failed to remove socket during close", "path", e.socketPath, "error", err)
	}
}
