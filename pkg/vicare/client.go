package vicare

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
)

const (
	endpointInstallations = "/iot/v2/equipment/installations"
	endpointGateways      = "/iot/v2/equipment/gateways"
	endpointFeatures      = "/iot/v2/features/installations"
)

// Client exposes the cloud API's installations, gateways, devices and
// features as typed objects and executes validated commands against them.
// All network traffic goes through the injected Transport; the client holds
// no mutable state and is safe for concurrent use.
type Client struct {
	transport Transport
	logger    *log.Logger
}

func NewClient(transport Transport, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New()
		logger.SetLevel(log.ErrorLevel)
	}
	return &Client{transport: transport, logger: logger}
}

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) getData(ctx context.Context, path string) ([]byte, error) {
	raw, err := c.transport.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var envelope dataEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &TransportError{Op: "GET", URL: path, Err: fmt.Errorf("malformed reply body: %w", err)}
	}
	return envelope.Data, nil
}

// GetInstallations lists the installations visible to the account.
func (c *Client) GetInstallations(ctx context.Context) ([]Installation, error) {
	data, err := c.getData(ctx, endpointInstallations)
	if err != nil {
		return nil, err
	}
	return parseInstallations(data)
}

// GetGateways lists the gateways visible to the account.
func (c *Client) GetGateways(ctx context.Context) ([]Gateway, error) {
	data, err := c.getData(ctx, endpointGateways)
	if err != nil {
		return nil, err
	}
	return parseGateways(data)
}

// GetDevices lists the devices behind one gateway. The returned snapshots
// carry no features yet; see GetFeatures and RefreshDevice.
func (c *Client) GetDevices(ctx context.Context, installationID, gatewaySerial string) ([]Device, error) {
	path := fmt.Sprintf("%s/%s/gateways/%s/devices", endpointInstallations, installationID, gatewaySerial)
	data, err := c.getData(ctx, path)
	if err != nil {
		return nil, err
	}
	return parseDevices(data, installationID, gatewaySerial)
}

// FeatureFilter narrows a feature fetch. With OnlyEnabled or Names set, the
// server-side filter endpoint is used instead of the full dump.
type FeatureFilter struct {
	OnlyEnabled bool
	Names       []string
}

func (f FeatureFilter) empty() bool {
	return !f.OnlyEnabled && len(f.Names) == 0
}

// GetFeatures fetches the feature payloads of a device as typed Features.
func (c *Client) GetFeatures(ctx context.Context, installationID, gatewaySerial, deviceID string, filter FeatureFilter) ([]Feature, error) {
	base := fmt.Sprintf("%s/%s/gateways/%s/devices/%s/features", endpointFeatures, installationID, gatewaySerial, deviceID)

	var data []byte
	var err error
	if filter.empty() {
		data, err = c.getData(ctx, base)
	} else {
		body := map[string]any{
			"skipDisabled": filter.OnlyEnabled,
			"skipNotReady": filter.OnlyEnabled,
		}
		if len(filter.Names) > 0 {
			body["filter"] = filter.Names
		}
		data, err = c.postData(ctx, base+"/filter", body)
	}
	if err != nil {
		return nil, err
	}
	return ParseFeatures(data)
}

// GetFeature fetches one feature by name directly from the server.
func (c *Client) GetFeature(ctx context.Context, installationID, gatewaySerial, deviceID, featureName string) (Feature, error) {
	path := fmt.Sprintf("%s/%s/gateways/%s/devices/%s/features/%s", endpointFeatures, installationID, gatewaySerial, deviceID, featureName)
	data, err := c.getData(ctx, path)
	if err != nil {
		return Feature{}, err
	}
	return ParseFeature(data)
}

// RefreshDevice fetches fresh features for a known device and returns a new
// immutable snapshot. There is no incremental patching: the whole snapshot
// is replaced on every refresh.
func (c *Client) RefreshDevice(ctx context.Context, device Device, onlyEnabled bool) (Device, error) {
	features, err := c.GetFeatures(ctx, device.InstallationID, device.GatewaySerial, device.ID, FeatureFilter{OnlyEnabled: onlyEnabled})
	if err != nil {
		return Device{}, err
	}
	return device.WithFeatures(features), nil
}

// GetFullInstallationStatus walks gateways, devices and features of one
// installation and returns fully populated device snapshots.
func (c *Client) GetFullInstallationStatus(ctx context.Context, installationID string, onlyEnabled bool) ([]Device, error) {
	gateways, err := c.GetGateways(ctx)
	if err != nil {
		return nil, err
	}

	var all []Device
	for _, gw := range gateways {
		devices, err := c.GetDevices(ctx, installationID, gw.Serial)
		if err != nil {
			return nil, err
		}
		for _, device := range devices {
			populated, err := c.RefreshDevice(ctx, device, onlyEnabled)
			if err != nil {
				return nil, err
			}
			all = append(all, populated)
		}
	}
	return all, nil
}

// ExecuteCommand validates the parameter set against the command's declared
// constraints and, only when validation passes, posts it to the command's
// URI. Local rejections are *ValidationError carrying every violated
// constraint; network failures surface as *TransportError, so callers can
// tell "my input was wrong" from "the request could not be completed".
func (c *Client) ExecuteCommand(ctx context.Context, feature Feature, commandName string, params map[string]any) (CommandResponse, error) {
	cmd, ok := feature.Commands[commandName]
	if !ok {
		return CommandResponse{}, &ValidationError{
			Feature: feature.Name,
			Command: commandName,
			Message: fmt.Sprintf("command not found, available: %v", commandNames(feature.Commands)),
		}
	}
	if !cmd.IsExecutable {
		return CommandResponse{}, &ValidationError{
			Feature: feature.Name,
			Command: commandName,
			Message: "command is currently not executable (isExecutable=false)",
		}
	}
	if violations := cmd.ValidateParams(params); len(violations) > 0 {
		return CommandResponse{}, &ValidationError{
			Feature:    feature.Name,
			Command:    commandName,
			Violations: violations,
		}
	}

	if params == nil {
		params = map[string]any{}
	}
	c.logger.Debugf("vicare: execute %s on %s", commandName, feature.Name)
	raw, err := c.transport.Post(ctx, cmd.URI, params)
	if err != nil {
		return CommandResponse{}, err
	}
	resp, err := ParseCommandResponse(raw)
	if err != nil {
		return CommandResponse{}, &TransportError{Op: "POST", URL: cmd.URI, Err: err}
	}
	return resp, nil
}

func (c *Client) postData(ctx context.Context, path string, body any) ([]byte, error) {
	raw, err := c.transport.Post(ctx, path, body)
	if err != nil {
		return nil, err
	}
	var envelope dataEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &TransportError{Op: "POST", URL: path, Err: fmt.Errorf("malformed reply body: %w", err)}
	}
	return envelope.Data, nil
}

func commandNames(cmds map[string]Command) []string {
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	return names
}
