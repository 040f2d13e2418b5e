package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/manager"
	"github.com/frobware/go-switchd/metrics"
)

// routes builds the API mux. Method-qualified patterns leave 405
// handling to the mux itself.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/devices", s.handleDeviceList)
	mux.HandleFunc("PUT /v1/devices/{dev}", s.handleDeviceAdd)
	mux.HandleFunc("GET /v1/devices/{dev}", s.handleDeviceGet)
	mux.HandleFunc("POST /v1/devices/{dev}/warm-init/begin", s.handleWarmInitBegin)
	mux.HandleFunc("POST /v1/devices/{dev}/warm-init/end", s.handleWarmInitEnd)
	mux.HandleFunc("POST /v1/devices/{dev}/reset-config", s.handleResetConfig)
	mux.HandleFunc("PUT /v1/devices/{dev}/warm-init-error", s.handleWarmInitErrorSet)
	mux.HandleFunc("GET /v1/devices/{dev}/warm-init-error", s.handleWarmInitErrorGet)
	mux.HandleFunc("GET /v1/devices/{dev}/netdev", s.handleNetdevName)
	mux.HandleFunc("GET /v1/devices/{dev}/platform-type", s.handlePlatformType)
	mux.HandleFunc("GET /v1/devices/{dev}/history", s.handleHistory)
	mux.HandleFunc("GET /v1/capabilities", s.handleCapabilities)
	mux.HandleFunc("GET /v1/oplog", s.handleOpLog)
	mux.HandleFunc("GET /v1/doctor", s.handleDoctor)
	mux.HandleFunc("GET /v1/healthz", s.handleHealthz)
	mux.Handle("GET /metrics", metrics.Handler())

	return mux
}

func (s *Server) handleDeviceAdd(w http.ResponseWriter, r *http.Request) {
	dev, err := devicePathValue(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	var profile switchd.DeviceProfile
	if err := decodeJSON(r.Body, &profile); err != nil {
		s.error(w, r, fmt.Errorf("decode profile: %v: %w", err, switchd.ErrInvalidArgument))
		return
	}
	if err := profile.Validate(); err != nil {
		s.error(w, r, fmt.Errorf("%v: %w", err, switchd.ErrInvalidArgument))
		return
	}
	if err := s.mgr.DeviceAdd(r.Context(), dev, &profile); err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, deviceAddResponse{Device: dev})
}

func (s *Server) handleDeviceList(w http.ResponseWriter, r *http.Request) {
	infos, err := s.mgr.ListDevices(r.Context())
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleDeviceGet(w http.ResponseWriter, r *http.Request) {
	dev, err := devicePathValue(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	status, err := s.mgr.DeviceGet(r.Context(), dev)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleWarmInitBegin(w http.ResponseWriter, r *http.Request) {
	dev, err := devicePathValue(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req warmInitBeginRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.error(w, r, fmt.Errorf("decode request: %v: %w", err, switchd.ErrInvalidArgument))
		return
	}
	mode, ok := switchd.ParseWarmInitMode(req.Mode)
	if !ok {
		s.error(w, r, fmt.Errorf("unknown warm-init mode %q: %w", req.Mode, switchd.ErrInvalidArgument))
		return
	}
	serdes := switchd.SerdesUpgradeNone
	if req.SerdesUpgrade != "" {
		serdes, ok = switchd.ParseSerdesUpgradeMode(req.SerdesUpgrade)
		if !ok {
			s.error(w, r, fmt.Errorf("unknown serdes upgrade mode %q: %w", req.SerdesUpgrade, switchd.ErrInvalidArgument))
			return
		}
	}
	cycleID, err := s.mgr.WarmInitBegin(r.Context(), dev, mode, serdes, req.UpgradeAgents)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, warmInitBeginResponse{CycleID: cycleID})
}

func (s *Server) handleWarmInitEnd(w http.ResponseWriter, r *http.Request) {
	dev, err := devicePathValue(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.mgr.WarmInitEnd(r.Context(), dev); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetConfig(w http.ResponseWriter, r *http.Request) {
	dev, err := devicePathValue(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.mgr.ResetConfig(r.Context(), dev); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWarmInitErrorSet(w http.ResponseWriter, r *http.Request) {
	dev, err := devicePathValue(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req warmInitErrorBody
	if err := decodeJSON(r.Body, &req); err != nil {
		s.error(w, r, fmt.Errorf("decode request: %v: %w", err, switchd.ErrInvalidArgument))
		return
	}
	if err := s.mgr.SetWarmInitError(r.Context(), dev, req.State); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWarmInitErrorGet(w http.ResponseWriter, r *http.Request) {
	dev, err := devicePathValue(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	state, err := s.mgr.WarmInitError(r.Context(), dev)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, warmInitErrorBody{State: state})
}

func (s *Server) handleNetdevName(w http.ResponseWriter, r *http.Request) {
	dev, err := devicePathValue(r)
	if err != nil {
		s.error(w, r, err)
		return
	}

	var name string
	if pciBusDev := r.URL.Query().Get("pci-bus-dev"); pciBusDev != "" {
		instance := 0
		if raw := r.URL.Query().Get("instance"); raw != "" {
			instance, err = strconv.Atoi(raw)
			if err != nil {
				s.error(w, r, fmt.Errorf("instance %q: %w", raw, switchd.ErrInvalidArgument))
				return
			}
		}
		name, err = s.mgr.CPUIf10GNetdevName(r.Context(), dev, pciBusDev, instance)
	} else {
		name, err = s.mgr.CPUIfNetdevName(r.Context(), dev)
	}
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, netdevResponse{Name: name})
}

func (s *Server) handlePlatformType(w http.ResponseWriter, r *http.Request) {
	dev, err := devicePathValue(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	isSWModel, err := s.mgr.PlatformType(r.Context(), dev)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, platformTypeResponse{IsSWModel: isSWModel})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	dev, err := devicePathValue(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	cycles, err := s.mgr.History(r.Context(), dev)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cycles)
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, capabilitiesResponse{Capabilities: s.mgr.Capabilities()})
}

func (s *Server) handleOpLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.error(w, r, fmt.Errorf("limit %q: %w", raw, switchd.ErrInvalidArgument))
			return
		}
		limit = n
	}
	entries, err := s.mgr.OpLog(r.Context(), limit)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDoctor(w http.ResponseWriter, r *http.Request) {
	report, err := s.mgr.Doctor(r.Context())
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doctorWire(report))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// devicePathValue parses the {dev} path segment.
func devicePathValue(r *http.Request) (switchd.DeviceID, error) {
	dev, err := switchd.ParseDeviceID(r.PathValue("dev"))
	if err != nil {
		return 0, fmt.Errorf("device %q: %w", r.PathValue("dev"), switchd.ErrInvalidArgument)
	}
	return dev, nil
}

// error maps err onto an HTTP status and writes the JSON error body.
// Server-side failures are logged; client errors are not.
func (s *Server) error(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.DebugContext(r.Context(), "request rejected",
			"method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, err)
}

// statusForError translates the lifecycle error taxonomy to HTTP.
func statusForError(err error) int {
	var conflict manager.ErrWarmInitInProgress
	switch {
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.Is(err, switchd.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, switchd.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, switchd.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.ReadCloser, dst any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
