package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/manager"
	"github.com/frobware/go-switchd/store"
)

// remoteClient speaks the daemon's HTTP API. It implements the Client
// interface by translating between domain types and wire shapes.
type remoteClient struct {
	base   string
	httpc  *http.Client
	logger *slog.Logger
}

// newRemote creates a Client connected to the specified address.
func newRemote(address string, logger *slog.Logger) (Client, error) {
	base, unixPath := parseAddress(address)

	httpc := &http.Client{}
	if unixPath != "" {
		httpc.Transport = &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", unixPath)
			},
		}
	}

	return &remoteClient{
		base:   base,
		httpc:  httpc,
		logger: logger,
	}, nil
}

// parseAddress splits an address into the HTTP base URL and, for Unix
// sockets, the socket path to dial. Handles Unix socket paths (unix://
// prefix or absolute paths starting with /) and TCP addresses
// (host:port). The base host for socket connections is a placeholder;
// the dialer ignores it.
func parseAddress(address string) (base, unixPath string) {
	if strings.HasPrefix(address, "unix://") {
		return "http://switchd", strings.TrimPrefix(address, "unix://")
	}
	if strings.HasPrefix(address, "/") {
		return "http://switchd", address
	}
	return "http://" + address, ""
}

// Close releases idle connections.
func (c *remoteClient) Close() error {
	c.httpc.CloseIdleConnections()
	return nil
}

// call performs one API request: in is JSON-encoded when non-nil, the
// response decoded into out when non-nil. Error responses translate
// back into the lifecycle error taxonomy.
func (c *remoteClient) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return translateHTTPError(resp.StatusCode, errorMessage(resp.Body))
	}
	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *remoteClient) DeviceAdd(ctx context.Context, dev switchd.DeviceID, profile *switchd.DeviceProfile) error {
	return c.call(ctx, http.MethodPut, fmt.Sprintf("/v1/devices/%d", dev), profile, nil)
}

func (c *remoteClient) WarmInitBegin(ctx context.Context, dev switchd.DeviceID, mode switchd.WarmInitMode, serdesUpgrade switchd.SerdesUpgradeMode, upgradeAgents bool) (string, error) {
	req := warmInitBeginRequest{
		Mode:          mode.String(),
		SerdesUpgrade: serdesUpgrade.String(),
		UpgradeAgents: upgradeAgents,
	}
	var resp cycleResponse
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("/v1/devices/%d/warm-init/begin", dev), req, &resp); err != nil {
		return "", err
	}
	return resp.CycleID, nil
}

func (c *remoteClient) WarmInitEnd(ctx context.Context, dev switchd.DeviceID) error {
	return c.call(ctx, http.MethodPost, fmt.Sprintf("/v1/devices/%d/warm-init/end", dev), nil, nil)
}

func (c *remoteClient) ResetConfig(ctx context.Context, dev switchd.DeviceID) error {
	return c.call(ctx, http.MethodPost, fmt.Sprintf("/v1/devices/%d/reset-config", dev), nil, nil)
}

func (c *remoteClient) SetWarmInitError(ctx context.Context, dev switchd.DeviceID, state bool) error {
	return c.call(ctx, http.MethodPut, fmt.Sprintf("/v1/devices/%d/warm-init-error", dev), stateBody{State: state}, nil)
}

func (c *remoteClient) WarmInitError(ctx context.Context, dev switchd.DeviceID) (bool, error) {
	var resp stateBody
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/v1/devices/%d/warm-init-error", dev), nil, &resp); err != nil {
		return false, err
	}
	return resp.State, nil
}

func (c *remoteClient) PlatformType(ctx context.Context, dev switchd.DeviceID) (bool, error) {
	var resp platformTypeResponse
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/v1/devices/%d/platform-type", dev), nil, &resp); err != nil {
		return false, err
	}
	return resp.IsSWModel, nil
}

func (c *remoteClient) CPUIfNetdevName(ctx context.Context, dev switchd.DeviceID) (string, error) {
	var resp nameResponse
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/v1/devices/%d/netdev", dev), nil, &resp); err != nil {
		return "", err
	}
	return resp.Name, nil
}

func (c *remoteClient) CPUIf10GNetdevName(ctx context.Context, dev switchd.DeviceID, pciBusDev string, instance int) (string, error) {
	q := url.Values{}
	q.Set("pci-bus-dev", pciBusDev)
	q.Set("instance", fmt.Sprintf("%d", instance))
	var resp nameResponse
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/v1/devices/%d/netdev?%s", dev, q.Encode()), nil, &resp); err != nil {
		return "", err
	}
	return resp.Name, nil
}

func (c *remoteClient) ListDevices(ctx context.Context) ([]switchd.DeviceInfo, error) {
	var infos []switchd.DeviceInfo
	if err := c.call(ctx, http.MethodGet, "/v1/devices", nil, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

func (c *remoteClient) DeviceGet(ctx context.Context, dev switchd.DeviceID) (manager.DeviceStatus, error) {
	var status manager.DeviceStatus
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/v1/devices/%d", dev), nil, &status); err != nil {
		return manager.DeviceStatus{}, err
	}
	return status, nil
}

func (c *remoteClient) History(ctx context.Context, dev switchd.DeviceID) ([]switchd.WarmInitCycle, error) {
	var cycles []switchd.WarmInitCycle
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/v1/devices/%d/history", dev), nil, &cycles); err != nil {
		return nil, err
	}
	return cycles, nil
}

func (c *remoteClient) OpLog(ctx context.Context, limit int) ([]store.OpEntry, error) {
	var entries []store.OpEntry
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/v1/oplog?limit=%d", limit), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *remoteClient) Capabilities(ctx context.Context) ([]string, error) {
	var resp capabilitiesResponse
	if err := c.call(ctx, http.MethodGet, "/v1/capabilities", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Capabilities, nil
}

func (c *remoteClient) Doctor(ctx context.Context) (manager.DoctorReport, error) {
	var wire doctorReportWire
	if err := c.call(ctx, http.MethodGet, "/v1/doctor", nil, &wire); err != nil {
		return manager.DoctorReport{}, err
	}
	return doctorReportFromWire(wire), nil
}

// errorMessage extracts the "error" field from an error response body,
// falling back to the raw body.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var wire struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &wire); err == nil && wire.Error != "" {
		return wire.Error
	}
	return strings.TrimSpace(string(data))
}

// translateHTTPError converts an error status back into the lifecycle
// error taxonomy so errors.Is behaves the same against an embedded
// manager and a remote daemon.
func translateHTTPError(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch status {
	case http.StatusBadRequest:
		return fmt.Errorf("%s: %w", msg, switchd.ErrInvalidArgument)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, switchd.ErrNotFound)
	case http.StatusNotImplemented:
		return fmt.Errorf("%s: %w", msg, switchd.ErrUnsupported)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", msg, ErrConflict)
	default:
		return fmt.Errorf("server error (%d): %s", status, msg)
	}
}
