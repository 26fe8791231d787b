package vicare

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeatureScalar(t *testing.T) {
	f, err := ParseFeature([]byte(`{
		"feature": "heating.sensors.temperature.outside",
		"isEnabled": true, "isReady": true,
		"properties": {"value": {"type": "number", "value": 5.5, "unit": "celsius"}}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "heating.sensors.temperature.outside", f.Name)
	assert.True(t, f.IsEnabled)
	assert.True(t, f.IsReady)
	assert.Equal(t, 5.5, f.Value())
	assert.Equal(t, "celsius", f.Unit())
	assert.False(t, f.IsComposite())
	assert.False(t, f.IsWritable())
}

func TestParseFeatureDefaultsAbsentFlags(t *testing.T) {
	f, err := ParseFeature([]byte(`{"feature": "bare"}`))
	require.NoError(t, err)
	assert.False(t, f.IsEnabled)
	assert.False(t, f.IsReady)
	assert.Nil(t, f.Value())
	assert.Equal(t, 0, f.Properties.Len())
}

func TestParseFeatureMissingNameFails(t *testing.T) {
	_, err := ParseFeature([]byte(`{"isEnabled": true}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestParseFeatureCommandWithoutURIFails(t *testing.T) {
	_, err := ParseFeature([]byte(`{
		"feature": "broken",
		"commands": {"oops": {"isExecutable": true}}
	}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "oops", verr.Command)
}

func TestParseFeatureCommandConstraints(t *testing.T) {
	f := curveFeature(t)
	cmd := f.Commands["setCurve"]
	require.NotNil(t, cmd.Params)
	assert.True(t, cmd.IsExecutable)

	slope := cmd.Params["slope"]
	assert.Equal(t, "number", slope.Type)
	assert.True(t, slope.Required)
	require.NotNil(t, slope.Constraints.Min)
	assert.Equal(t, 0.2, *slope.Constraints.Min)
	require.NotNil(t, slope.Constraints.Step)
	assert.Equal(t, 0.1, *slope.Constraints.Step)
}

func TestParseFeatureImmutableAgainstPayloadMutation(t *testing.T) {
	payload := map[string]any{
		"feature":   "heating.sensors.temperature.supply",
		"isEnabled": true,
		"properties": map[string]any{
			"value": map[string]any{"type": "number", "value": 21.0},
		},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	f, err := ParseFeature(raw)
	require.NoError(t, err)
	require.Equal(t, 21.0, f.Value())

	// mutating the source mapping must not leak into the constructed feature
	payload["properties"].(map[string]any)["value"].(map[string]any)["value"] = 99.0
	payload["isEnabled"] = false

	assert.Equal(t, 21.0, f.Value())
	assert.True(t, f.IsEnabled)
}

func TestParseCommandResponseVariants(t *testing.T) {
	resp, err := ParseCommandResponse([]byte(`{"data": {"success": true, "message": "ok"}}`))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "ok", resp.Message)

	// string-typed success flag
	resp, err = ParseCommandResponse([]byte(`{"success": "True"}`))
	require.NoError(t, err)
	assert.True(t, resp.Success)

	resp, err = ParseCommandResponse([]byte(`{"success": false, "reason": "GATEWAY_OFFLINE"}`))
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "GATEWAY_OFFLINE", resp.Reason)
}

func TestParseFeaturesListPropagatesErrors(t *testing.T) {
	_, err := ParseFeatures([]byte(`[{"feature": "a"}, {"isEnabled": true}]`))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
}

func TestDeviceSnapshotViews(t *testing.T) {
	device := TestDevice()

	assert.Len(t, device.Features, 6)
	// curve and outside-temperature expand to two each, the rest are identity
	assert.Len(t, device.FeaturesFlat, 8)

	curve, err := device.Feature("heating.circuits.0.heating.curve")
	require.NoError(t, err)
	assert.True(t, curve.IsComposite())

	slope, err := device.Feature("heating.circuits.0.heating.curve.slope")
	require.NoError(t, err)
	assert.Equal(t, 1.4, slope.Value())

	_, err = device.Feature("heating.does.not.exist")
	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)
	assert.Equal(t, "feature", nfe.Kind)
}
