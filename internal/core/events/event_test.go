package events

import (
	"testing"

	"github.com/cpuig/vicare2mqtt/internal/core/domain"
	"github.com/cpuig/vicare2mqtt/pkg/vicare"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeEntityID(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("heating_dhw_temperature_main", SanitizeEntityID("heating.dhw.temperature.main"))
	assert.Equal("heating_circuits_0_heating_curve_slope", SanitizeEntityID("heating.circuits.0.heating.curve.slope"))
	assert.Equal("abc_123", SanitizeEntityID("Abc 123"))
}

func TestEntityID(t *testing.T) {

	assert := assert.New(t)

	dev := vicare.TestDevice()
	f, err := dev.Feature("heating.dhw.temperature.main")
	if err != nil {
		t.Error(err)
		return
	}

	assert.Equal("0_heating_dhw_temperature_main", EntityID(dev, f))
}

func TestWritableParam(t *testing.T) {

	assert := assert.New(t)

	dev := vicare.TestDevice()

	f, err := dev.Feature("heating.dhw.temperature.main")
	if err != nil {
		t.Error(err)
		return
	}
	cmd, param, decl, ok := WritableParam(f)
	assert.True(ok, "writable")
	assert.Equal("setTargetTemperature", cmd.Name)
	assert.Equal("temperature", param)
	assert.Equal("number", decl.Type)

	// curve children are read-only: setCurve spans two parameters
	f, err = dev.Feature("heating.circuits.0.heating.curve.slope")
	if err != nil {
		t.Error(err)
		return
	}
	_, _, _, ok = WritableParam(f)
	assert.False(ok, "slope not writable")
}

func TestDeviceUpdateEvents(t *testing.T) {

	assert := assert.New(t)

	dev := vicare.TestDevice()
	evs := DeviceUpdateEvents(dev)

	assert.Equal(8, len(evs), "one event per flat feature")

	byId := make(map[string]any, len(evs))
	for _, ev := range evs {
		byId[ev.(domain.SensorUpdateEvent).SensorId()] = ev
	}

	slope, ok := byId["0_heating_circuits_0_heating_curve_slope"].(domain.FloatSensorUpdateEvent)
	assert.True(ok, "slope is a plain float sensor")
	assert.Equal(1.4, slope.Value)

	dhw, ok := byId["0_heating_dhw_temperature_main"].(domain.InputNumberSensorUpdateEvent)
	assert.True(ok, "dhw target is an input number")
	assert.Equal(50.0, dhw.Value)

	mode, ok := byId["0_heating_circuits_0_operating_modes_active"].(domain.SelectSensorUpdateEvent)
	assert.True(ok, "operating mode is a select")
	assert.Equal("dhw", mode.Value)

	compressor, ok := byId["0_heating_compressors_0"].(domain.BinarySensorUpdateEvent)
	assert.True(ok, "compressor is a binary sensor")
	assert.False(compressor.Value)

	status, ok := byId["0_heating_sensors_temperature_outside_status"].(domain.TextSensorUpdateEvent)
	assert.True(ok, "status is a text sensor")
	assert.Equal("connected", status.Value)
}

func TestBridgeStateEvent(t *testing.T) {

	assert := assert.New(t)

	ev, ok := BridgeStateEvent(true).(domain.BridgeStateUpdateEvent)
	assert.True(ok)
	assert.Equal(SENSOR_ID_BRIDGE_STATE, ev.SensorId())
	assert.True(ev.Value)
}
