package vicare

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDiscovery(t *testing.T) {
	client, _ := NewTestClient()
	ctx := context.Background()

	installations, err := client.GetInstallations(ctx)
	require.NoError(t, err)
	require.Len(t, installations, 1)
	assert.Equal(t, TestInstallationID, installations[0].ID)
	assert.Equal(t, "home", installations[0].Alias)

	gateways, err := client.GetGateways(ctx)
	require.NoError(t, err)
	require.Len(t, gateways, 1)
	assert.Equal(t, TestGatewaySerial, gateways[0].Serial)
	assert.Equal(t, TestInstallationID, gateways[0].InstallationID)

	devices, err := client.GetDevices(ctx, TestInstallationID, TestGatewaySerial)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "Vitodens200W", devices[0].ModelID)
	assert.Empty(t, devices[0].Features, "device list carries no features yet")
}

func TestClientFullInstallationStatus(t *testing.T) {
	client, _ := NewTestClient()

	devices, err := client.GetFullInstallationStatus(context.Background(), TestInstallationID, false)
	require.NoError(t, err)
	require.Len(t, devices, 1)

	device := devices[0]
	assert.Equal(t, TestDeviceID, device.ID)
	assert.Equal(t, TestGatewaySerial, device.GatewaySerial)
	assert.NotEmpty(t, device.Features)
	assert.NotEmpty(t, device.FeaturesFlat)
}

func TestClientFeatureFilterUsesPostEndpoint(t *testing.T) {
	client, transport := NewTestClient()

	_, err := client.GetFeatures(context.Background(), TestInstallationID, TestGatewaySerial, TestDeviceID,
		FeatureFilter{OnlyEnabled: true, Names: []string{"heating.circuits.0.heating.curve"}})
	require.NoError(t, err)

	post, ok := transport.LastPost()
	require.True(t, ok)
	assert.Contains(t, post.Path, "/features/filter")
	body := post.Body.(map[string]any)
	assert.Equal(t, true, body["skipDisabled"])
	assert.Equal(t, []string{"heating.circuits.0.heating.curve"}, body["filter"])
}

func TestExecuteCommandHeatingCurve(t *testing.T) {
	client, transport := NewTestClient()
	device := TestDevice()

	curve, err := device.Feature("heating.circuits.0.heating.curve")
	require.NoError(t, err)

	resp, err := client.ExecuteCommand(context.Background(), curve, "setCurve",
		map[string]any{"slope": 1.4, "shift": 0})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	post, ok := transport.LastPost()
	require.True(t, ok)
	assert.Equal(t, "https://api.example/operations/setCurve", post.Path, "request goes to the command's declared URI")
}

func TestExecuteCommandRejectsUnknownCommand(t *testing.T) {
	client, transport := NewTestClient()
	device := TestDevice()
	curve, _ := device.Feature("heating.circuits.0.heating.curve")

	_, err := client.ExecuteCommand(context.Background(), curve, "setSlope", map[string]any{"slope": 1.0})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "setSlope", verr.Command)

	_, posted := transport.LastPost()
	assert.False(t, posted, "no request may be sent on local rejection")
}

func TestExecuteCommandRejectsUnknownParameter(t *testing.T) {
	client, transport := NewTestClient()
	device := TestDevice()
	curve, _ := device.Feature("heating.circuits.0.heating.curve")

	_, err := client.ExecuteCommand(context.Background(), curve, "setCurve",
		map[string]any{"slope": 1.4, "shift": 0, "extra": 1})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, ViolationUnknownParam, verr.Violations[0].Kind)

	_, posted := transport.LastPost()
	assert.False(t, posted)
}

func TestExecuteCommandRejectsNonExecutable(t *testing.T) {
	client, _ := NewTestClient()
	f, err := ParseFeature([]byte(`{
		"feature": "test",
		"commands": {"disabledCmd": {"uri": "https://api.example/cmd", "isExecutable": false, "params": {}}}
	}`))
	require.NoError(t, err)

	_, err = client.ExecuteCommand(context.Background(), f, "disabledCmd", nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "not executable")
}

func TestExecuteCommandEnumeratesAllViolations(t *testing.T) {
	client, _ := NewTestClient()
	device := TestDevice()
	curve, _ := device.Feature("heating.circuits.0.heating.curve")

	_, err := client.ExecuteCommand(context.Background(), curve, "setCurve",
		map[string]any{"slope": 9.9, "shift": 0.5})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 2, "all violated constraints are reported at once")
}

func TestExecuteCommandTransportErrorIsDistinct(t *testing.T) {
	client, transport := NewTestClient()
	device := TestDevice()
	curve, _ := device.Feature("heating.circuits.0.heating.curve")

	transport.Fail = errors.New("connection reset")
	_, err := client.ExecuteCommand(context.Background(), curve, "setCurve",
		map[string]any{"slope": 1.4, "shift": 0})

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr), "transport failure must not look like a validation failure")
}

func TestRefreshDeviceReplacesSnapshot(t *testing.T) {
	client, _ := NewTestClient()
	device := TestDevice()

	refreshed, err := client.RefreshDevice(context.Background(), device, false)
	require.NoError(t, err)
	assert.Equal(t, device.ID, refreshed.ID)
	assert.Len(t, refreshed.FeaturesFlat, len(device.FeaturesFlat))

	// the old snapshot stays intact
	_, err = device.Feature("heating.circuits.0.heating.curve")
	assert.NoError(t, err)
}
