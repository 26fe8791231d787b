package events

import (
	"testing"

	"github.com/cpuig/vicare2mqtt/internal/core/domain"
	"github.com/cpuig/vicare2mqtt/pkg/vicare"

	"github.com/stretchr/testify/assert"
)

func TestDeviceSensors(t *testing.T) {

	assert := assert.New(t)

	dev := vicare.TestDevice()
	haDevice := HeatingDevice(dev)

	sensors := DeviceSensors(haDevice, dev)

	assert.Equal(6, len(sensors), "writable features are not plain sensors")

	byId := make(map[string]domain.GenericSensor, len(sensors))
	for _, s := range sensors {
		byId[s.Id] = s
	}

	outside, ok := byId["0_heating_sensors_temperature_outside_value"]
	assert.True(ok)
	assert.Equal(SENSOR_TYPE_SENSOR, outside.SensorType)
	assert.Equal("°C", outside.UnitOfMeasurement)
	assert.Equal(DEVICE_CLASS_TEMPERATURE, outside.DeviceClass)
	assert.Equal(STATE_CLASS_MEASUREMENT, outside.StateClass)

	compressor, ok := byId["0_heating_compressors_0"]
	assert.True(ok)
	assert.Equal(SENSOR_TYPE_BINARY, compressor.SensorType)

	_, hasDHW := byId["0_heating_dhw_temperature_main"]
	assert.False(hasDHW, "input number feature not listed as sensor")
}

func TestDeviceInputNumbers(t *testing.T) {

	assert := assert.New(t)

	dev := vicare.TestDevice()
	haDevice := HeatingDevice(dev)

	numbers := DeviceInputNumbers(haDevice, dev)

	assert.Equal(1, len(numbers))
	number := numbers[0]
	assert.Equal("0_heating_dhw_temperature_main", number.Id)
	assert.Equal(30.0, number.Min)
	assert.Equal(60.0, number.Max)
	assert.Equal(1.0, number.Step)
	assert.Equal(50.0, number.InitialValue)
	assert.Equal("°C", number.UnitOfMeasurement)
	assert.Equal(INPUT_NUMBER_MODE_BOX, number.Mode)
}

func TestDeviceSelects(t *testing.T) {

	assert := assert.New(t)

	dev := vicare.TestDevice()
	haDevice := HeatingDevice(dev)

	selects := DeviceSelects(haDevice, dev)

	assert.Equal(1, len(selects))
	sel := selects[0]
	assert.Equal("0_heating_circuits_0_operating_modes_active", sel.Id)
	assert.Equal([]string{"standby", "dhw", "dhwAndHeating"}, sel.Options)
}

func TestFeatureDisplayName(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("Heating circuits 0 heating curve slope", featureDisplayName("heating.circuits.0.heating.curve.slope"))
	assert.Equal("Heating dhw temperature main", featureDisplayName("heating.dhw.temperature.main"))
}
