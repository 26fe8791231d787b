package vicare

import (
	"context"
	"fmt"
	"sync"
)

// FakeTransport serves canned JSON payloads keyed by path and records every
// POST it receives. It backs the package tests and the bridge's actor tests
// without any network or credentials.
type FakeTransport struct {
	mu         sync.Mutex
	GetRoutes  map[string]string
	PostRoutes map[string]string
	Posts      []RecordedPost
	Fail       error // when set, every call returns this wrapped in a *TransportError
}

type RecordedPost struct {
	Path string
	Body any
}

func (t *FakeTransport) Get(_ context.Context, path string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail != nil {
		return nil, &TransportError{Op: "GET", URL: path, Err: t.Fail}
	}
	payload, ok := t.GetRoutes[path]
	if !ok {
		return nil, &TransportError{Op: "GET", URL: path, StatusCode: 404}
	}
	return []byte(payload), nil
}

func (t *FakeTransport) Post(_ context.Context, path string, body any) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail != nil {
		return nil, &TransportError{Op: "POST", URL: path, Err: t.Fail}
	}
	t.Posts = append(t.Posts, RecordedPost{Path: path, Body: body})
	payload, ok := t.PostRoutes[path]
	if !ok {
		return nil, &TransportError{Op: "POST", URL: path, StatusCode: 404}
	}
	return []byte(payload), nil
}

// LastPost returns the most recent recorded POST, if any.
func (t *FakeTransport) LastPost() (RecordedPost, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Posts) == 0 {
		return RecordedPost{}, false
	}
	return t.Posts[len(t.Posts)-1], true
}

const (
	TestInstallationID = "12345"
	TestGatewaySerial  = "7633107093013212"
	TestDeviceID       = "0"
)

const testInstallationsJSON = `{"data": [
  {"id": 12345, "description": "Test house", "alias": "home", "address": {"city": "Testville"}}
]}`

const testGatewaysJSON = `{"data": [
  {"serial": "7633107093013212", "version": "1.4.0", "status": "Online", "installationId": 12345}
]}`

const testDevicesJSON = `{"data": [
  {"id": "0", "modelId": "Vitodens200W", "deviceType": "heating", "status": "Online"}
]}`

// testFeaturesJSON covers the interesting feature shapes: a composite
// heating curve with a two-parameter command, a plain scalar sensor, a
// status-only feature, a writable setting with an enum-constrained command,
// a writable numeric setting, and a schedule whose entries never expand.
const testFeaturesJSON = `{"data": [
  {
    "feature": "heating.circuits.0.heating.curve",
    "isEnabled": true, "isReady": true,
    "properties": {
      "slope": {"type": "number", "value": 1.4},
      "shift": {"type": "number", "value": 0}
    },
    "commands": {
      "setCurve": {
        "uri": "https://api.example/operations/setCurve",
        "isExecutable": true,
        "params": {
          "slope": {"type": "number", "required": true, "constraints": {"min": 0.2, "max": 3.5, "stepping": 0.1}},
          "shift": {"type": "number", "required": true, "constraints": {"min": -13, "max": 40, "stepping": 1}}
        }
      }
    }
  },
  {
    "feature": "heating.sensors.temperature.outside",
    "isEnabled": true, "isReady": true,
    "properties": {
      "value": {"type": "number", "value": 5.5, "unit": "celsius"},
      "status": {"type": "string", "value": "connected"}
    }
  },
  {
    "feature": "heating.compressors.0",
    "isEnabled": true, "isReady": true,
    "properties": {"active": {"type": "boolean", "value": false}}
  },
  {
    "feature": "heating.circuits.0.operating.modes.active",
    "isEnabled": true, "isReady": true,
    "properties": {"value": {"type": "string", "value": "dhw"}},
    "commands": {
      "setMode": {
        "uri": "https://api.example/operations/setMode",
        "isExecutable": true,
        "params": {
          "mode": {"type": "string", "required": true, "constraints": {"enum": ["standby", "dhw", "dhwAndHeating"]}}
        }
      }
    }
  },
  {
    "feature": "heating.dhw.temperature.main",
    "isEnabled": true, "isReady": true,
    "properties": {"value": {"type": "number", "value": 50, "unit": "celsius"}},
    "commands": {
      "setTargetTemperature": {
        "uri": "https://api.example/operations/setTargetTemperature",
        "isExecutable": true,
        "params": {
          "temperature": {"type": "number", "required": true, "constraints": {"min": 30, "max": 60, "stepping": 1}}
        }
      }
    }
  },
  {
    "feature": "heating.circuits.0.heating.schedule",
    "isEnabled": true, "isReady": true,
    "properties": {
      "active": {"type": "boolean", "value": true},
      "entries": {"type": "Schedule", "value": {"mon": [{"start": "06:00", "end": "22:00", "mode": "on"}]}}
    }
  }
]}`

const testCommandResponseJSON = `{"data": {"success": true, "message": "COMMAND_EXECUTION_SUCCESS"}}`

// NewTestTransport returns a FakeTransport preloaded with a complete
// fixture installation: one gateway, one Vitodens 200-W with the fixture
// feature set, and succeeding command endpoints.
func NewTestTransport() *FakeTransport {
	featuresPath := fmt.Sprintf("%s/%s/gateways/%s/devices/%s/features",
		endpointFeatures, TestInstallationID, TestGatewaySerial, TestDeviceID)
	return &FakeTransport{
		GetRoutes: map[string]string{
			endpointInstallations: testInstallationsJSON,
			endpointGateways:      testGatewaysJSON,
			fmt.Sprintf("%s/%s/gateways/%s/devices", endpointInstallations, TestInstallationID, TestGatewaySerial): testDevicesJSON,
			featuresPath: testFeaturesJSON,
		},
		PostRoutes: map[string]string{
			featuresPath + "/filter":                              testFeaturesJSON,
			"https://api.example/operations/setCurve":             testCommandResponseJSON,
			"https://api.example/operations/setMode":              testCommandResponseJSON,
			"https://api.example/operations/setTargetTemperature": testCommandResponseJSON,
		},
	}
}

// NewTestClient returns a Client wired to a fresh fixture transport.
func NewTestClient() (*Client, *FakeTransport) {
	transport := NewTestTransport()
	return NewClient(transport, nil), transport
}

// TestDevice returns the fully populated fixture device snapshot.
func TestDevice() Device {
	client, _ := NewTestClient()
	devices, err := client.GetFullInstallationStatus(context.Background(), TestInstallationID, false)
	if err != nil || len(devices) == 0 {
		panic(fmt.Sprintf("fixture device unavailable: %v", err))
	}
	return devices[0]
}
