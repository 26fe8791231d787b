package vicare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func curveFeature(t *testing.T) Feature {
	t.Helper()
	f, err := ParseFeature([]byte(`{
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
	}`))
	require.NoError(t, err)
	return f
}

func TestExpandScalarIsIdentity(t *testing.T) {
	f, err := ParseFeature([]byte(`{
		"feature": "heating.sensors.temperature.outside",
		"isEnabled": true, "isReady": true,
		"properties": {"value": {"type": "number", "value": 5.5, "unit": "celsius"}}
	}`))
	require.NoError(t, err)

	expanded := f.Expand()
	require.Len(t, expanded, 1)
	assert.Equal(t, f.Name, expanded[0].Name)
	assert.Equal(t, 5.5, expanded[0].Value())
	assert.Equal(t, "celsius", expanded[0].Unit())

	// idempotence: expanding an expanded feature changes nothing
	again := expanded[0].Expand()
	require.Len(t, again, 1)
	assert.Equal(t, expanded[0], again[0])
}

func TestExpandCompositeIsTotal(t *testing.T) {
	f := curveFeature(t)
	require.True(t, f.IsComposite())

	expanded := f.Expand()
	require.Len(t, expanded, 2)

	assert.Equal(t, "heating.circuits.0.heating.curve.slope", expanded[0].Name)
	assert.Equal(t, 1.4, expanded[0].Value())
	assert.Equal(t, "heating.circuits.0.heating.curve.shift", expanded[1].Name)
	assert.Equal(t, float64(0), expanded[1].Value())

	// the union of the children's single properties reconstructs the parent bag
	for _, child := range expanded {
		require.Equal(t, 1, child.Properties.Len())
		key := child.Properties.Keys()[0]
		parentProp, ok := f.Properties.Get(key)
		require.True(t, ok)
		childProp, _ := child.Properties.Get(key)
		assert.Equal(t, parentProp, childProp)
		assert.Equal(t, f.IsEnabled, child.IsEnabled)
		assert.Equal(t, f.IsReady, child.IsReady)
	}
}

func TestExpandDoesNotDuplicateMultiParamCommands(t *testing.T) {
	f := curveFeature(t)
	for _, child := range f.Expand() {
		assert.Empty(t, child.Commands, "setCurve spans slope and shift, so it must stay on the parent")
	}
	assert.Contains(t, f.Commands, "setCurve")
}

func TestExpandAttachesExactSingleParamCommand(t *testing.T) {
	f, err := ParseFeature([]byte(`{
		"feature": "heating.dhw.pump",
		"isEnabled": true,
		"properties": {
			"status": {"type": "string", "value": "on"},
			"level": {"type": "number", "value": 2}
		},
		"commands": {
			"setLevel": {
				"uri": "https://api.example/operations/setLevel",
				"isExecutable": true,
				"params": {"level": {"type": "number", "constraints": {"min": 0, "max": 3, "stepping": 1}}}
			}
		}
	}`))
	require.NoError(t, err)

	expanded := f.Expand()
	require.Len(t, expanded, 2)

	byName := map[string]Feature{}
	for _, child := range expanded {
		byName[child.Name] = child
	}
	assert.Empty(t, byName["heating.dhw.pump.status"].Commands)
	assert.Contains(t, byName["heating.dhw.pump.level"].Commands, "setLevel")
}

func TestExpandKeepsDeclarationOrder(t *testing.T) {
	f, err := ParseFeature([]byte(`{
		"feature": "f",
		"properties": {
			"zulu": {"value": 1},
			"alpha": {"value": 2},
			"mike": {"value": 3}
		}
	}`))
	require.NoError(t, err)

	expanded := f.Expand()
	require.Len(t, expanded, 3)
	assert.Equal(t, "f.zulu", expanded[0].Name)
	assert.Equal(t, "f.alpha", expanded[1].Name)
	assert.Equal(t, "f.mike", expanded[2].Name)
}

func TestExpandSkipsNonScalarProperties(t *testing.T) {
	// one scalar next to an object property: no expansion, value resolves
	f, err := ParseFeature([]byte(`{
		"feature": "heating.circuits.0.heating.schedule",
		"isEnabled": true,
		"properties": {
			"active": {"type": "boolean", "value": true},
			"entries": {"type": "Schedule", "value": {"mon": []}}
		}
	}`))
	require.NoError(t, err)

	expanded := f.Expand()
	require.Len(t, expanded, 1)
	assert.Equal(t, "heating.circuits.0.heating.schedule", expanded[0].Name)
	assert.Equal(t, true, expanded[0].Value())
}

func TestExpandNoValueProperties(t *testing.T) {
	f, err := ParseFeature([]byte(`{
		"feature": "device.messages.errors.raw",
		"properties": {"entries": {"type": "array", "value": []}}
	}`))
	require.NoError(t, err)

	expanded := f.Expand()
	require.Len(t, expanded, 1)
	assert.Nil(t, expanded[0].Value(), "no derivable scalar")
}
