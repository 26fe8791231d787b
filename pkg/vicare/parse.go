package vicare

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// featurePayload mirrors the wire shape of one feature object.
type featurePayload struct {
	Feature    string                    `json:"feature"`
	IsEnabled  bool                      `json:"isEnabled"`
	IsReady    bool                      `json:"isReady"`
	Properties PropertyBag               `json:"properties"`
	Commands   map[string]commandPayload `json:"commands"`
}

type commandPayload struct {
	URI          string               `json:"uri"`
	IsExecutable bool                 `json:"isExecutable"`
	Params       map[string]ParamDecl `json:"params"`
}

// ParseFeature constructs an immutable Feature from a raw payload.
// Absent optional fields degrade to their zero values (isEnabled/isReady
// default to false); a missing feature name, or a command block without a
// URI, is a construction-time *ValidationError rather than a silently
// broken object.
func ParseFeature(data []byte) (Feature, error) {
	var payload featurePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Feature{}, &ValidationError{Message: fmt.Sprintf("malformed feature payload: %v", err)}
	}
	if payload.Feature == "" {
		return Feature{}, &ValidationError{Message: "feature payload has no name"}
	}

	var commands map[string]Command
	if len(payload.Commands) > 0 {
		commands = make(map[string]Command, len(payload.Commands))
		for name, cp := range payload.Commands {
			if cp.URI == "" {
				return Feature{}, &ValidationError{
					Feature: payload.Feature,
					Command: name,
					Message: "command has no URI definition",
				}
			}
			commands[name] = Command{
				Name:         name,
				URI:          cp.URI,
				IsExecutable: cp.IsExecutable,
				Params:       cp.Params,
			}
		}
	}

	return Feature{
		Name:       payload.Feature,
		IsEnabled:  payload.IsEnabled,
		IsReady:    payload.IsReady,
		Properties: payload.Properties,
		Commands:   commands,
	}, nil
}

// ParseFeatures parses a list of raw feature payloads, as found in the
// "data" envelope of the features endpoint.
func ParseFeatures(data []byte) ([]Feature, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("malformed feature list: %v", err)}
	}
	features := make([]Feature, 0, len(raws))
	for _, raw := range raws {
		f, err := ParseFeature(raw)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, nil
}

// ParseCommandResponse maps a command execution reply. The API is sloppy
// about the success flag: it may arrive as a boolean or as a "True"/"False"
// string, and the whole object may or may not sit inside a data envelope.
func ParseCommandResponse(data []byte) (CommandResponse, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	root := data
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		root = envelope.Data
	}

	var payload struct {
		Success any    `json:"success"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(root, &payload); err != nil {
		return CommandResponse{}, fmt.Errorf("malformed command response: %w", err)
	}

	var success bool
	switch v := payload.Success.(type) {
	case bool:
		success = v
	case string:
		success = strings.EqualFold(v, "true")
	}

	return CommandResponse{
		Success: success,
		Message: payload.Message,
		Reason:  payload.Reason,
	}, nil
}

type installationPayload struct {
	ID          json.Number    `json:"id"`
	Description string         `json:"description"`
	Alias       string         `json:"alias"`
	Address     map[string]any `json:"address"`
}

func parseInstallations(data []byte) ([]Installation, error) {
	var payloads []installationPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, fmt.Errorf("malformed installation list: %w", err)
	}
	installations := make([]Installation, 0, len(payloads))
	for _, p := range payloads {
		installations = append(installations, Installation{
			ID:          p.ID.String(),
			Description: p.Description,
			Alias:       p.Alias,
			Address:     p.Address,
		})
	}
	return installations, nil
}

type gatewayPayload struct {
	Serial         string      `json:"serial"`
	Version        string      `json:"version"`
	Status         string      `json:"status"`
	InstallationID json.Number `json:"installationId"`
}

func parseGateways(data []byte) ([]Gateway, error) {
	var payloads []gatewayPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, fmt.Errorf("malformed gateway list: %w", err)
	}
	gateways := make([]Gateway, 0, len(payloads))
	for _, p := range payloads {
		gateways = append(gateways, Gateway{
			Serial:         p.Serial,
			Version:        p.Version,
			Status:         p.Status,
			InstallationID: p.InstallationID.String(),
		})
	}
	return gateways, nil
}

type devicePayload struct {
	ID         string `json:"id"`
	ModelID    string `json:"modelId"`
	DeviceType string `json:"deviceType"`
	Status     string `json:"status"`
}

func parseDevices(data []byte, installationID, gatewaySerial string) ([]Device, error) {
	var payloads []devicePayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, fmt.Errorf("malformed device list: %w", err)
	}
	devices := make([]Device, 0, len(payloads))
	for _, p := range payloads {
		devices = append(devices, Device{
			ID:             p.ID,
			GatewaySerial:  gatewaySerial,
			InstallationID: installationID,
			ModelID:        p.ModelID,
			DeviceType:     p.DeviceType,
			Status:         p.Status,
		})
	}
	return devices, nil
}

// objectKeys walks one JSON object at token level and returns its top-level
// keys in declaration order.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", tok)
		}
		keys = append(keys, key)
		// skip the value
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
