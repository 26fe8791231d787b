package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	. "github.com/cpuig/vicare2mqtt/internal/core/domain"
	"github.com/cpuig/vicare2mqtt/pkg/vicare"

	"github.com/carlmjohnson/versioninfo"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("vicare_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "cpuig",
		Model:        "ViCare2MQTT",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("ViCare2MQTT %s", md5HashShort(baseTopic)),
	}
}

// HeatingDevice maps one appliance snapshot to a Home Assistant device.
func HeatingDevice(dev vicare.Device) Device {
	serial := fmt.Sprintf("%s_%s_%s", dev.InstallationID, dev.GatewaySerial, dev.ID)
	return Device{
		Id:           fmt.Sprintf("vicare_device_%s", md5HashShort(serial)),
		Manufacturer: "Viessmann",
		Model:        dev.ModelID,
		Name:         fmt.Sprintf("%s %s", dev.ModelID, md5HashShort(serial)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

// DeviceSensors builds the read-only entities of one device snapshot:
// every flat feature with a scalar value that is not backed by a
// single-parameter command.
func DeviceSensors(haDevice Device, dev vicare.Device) []GenericSensor {
	var sensors []GenericSensor
	for _, f := range dev.FeaturesFlat {
		if _, _, _, writable := WritableParam(f); writable {
			continue
		}
		id := EntityID(dev, f)
		switch f.Value().(type) {
		case bool:
			sensors = append(sensors, GenericSensor{
				Device:     haDevice,
				Id:         id,
				SensorType: SENSOR_TYPE_BINARY,
				Name:       featureDisplayName(f.Name),
				UniqueId:   uniqueId(haDevice.Id, id),
			})
		case float64:
			sensors = append(sensors, GenericSensor{
				Device:            haDevice,
				Id:                id,
				SensorType:        SENSOR_TYPE_SENSOR,
				Name:              featureDisplayName(f.Name),
				StateClass:        stateClassForUnit(f.Unit()),
				DeviceClass:       deviceClassForUnit(f.Unit()),
				UnitOfMeasurement: unitSymbol(f.Unit()),
				UniqueId:          uniqueId(haDevice.Id, id),
			})
		case string:
			sensors = append(sensors, GenericSensor{
				Device:     haDevice,
				Id:         id,
				SensorType: SENSOR_TYPE_SENSOR,
				Name:       featureDisplayName(f.Name),
				UniqueId:   uniqueId(haDevice.Id, id),
			})
		}
	}
	return sensors
}

// DeviceInputNumbers builds a number entity for each flat feature whose
// single command takes one numeric parameter. Constraint bounds become the
// entity bounds so Home Assistant rejects out-of-range input up front.
func DeviceInputNumbers(haDevice Device, dev vicare.Device) []GenericInputNumber {
	var numbers []GenericInputNumber
	for _, f := range dev.FeaturesFlat {
		_, _, decl, writable := WritableParam(f)
		if !writable || decl.Type != "number" {
			continue
		}
		id := EntityID(dev, f)
		number := GenericInputNumber{
			Device:            haDevice,
			Id:                id,
			Name:              featureDisplayName(f.Name),
			UniqueId:          uniqueId(haDevice.Id, id),
			UnitOfMeasurement: unitSymbol(f.Unit()),
			Mode:              INPUT_NUMBER_MODE_BOX,
		}
		if decl.Constraints.Min != nil {
			number.Min = *decl.Constraints.Min
		}
		if decl.Constraints.Max != nil {
			number.Max = *decl.Constraints.Max
		}
		if decl.Constraints.Step != nil {
			number.Step = *decl.Constraints.Step
		}
		if value, ok := f.Value().(float64); ok {
			number.InitialValue = value
		}
		numbers = append(numbers, number)
	}
	return numbers
}

// DeviceSelects builds a select entity for each flat feature whose single
// command takes one enum-constrained parameter.
func DeviceSelects(haDevice Device, dev vicare.Device) []GenericSelect {
	var selects []GenericSelect
	for _, f := range dev.FeaturesFlat {
		_, _, decl, writable := WritableParam(f)
		if !writable || len(decl.Constraints.Enum) == 0 || decl.Type == "number" {
			continue
		}
		var options []string
		for _, v := range decl.Constraints.Enum {
			if s, ok := v.(string); ok {
				options = append(options, s)
			}
		}
		if len(options) == 0 {
			continue
		}
		id := EntityID(dev, f)
		selects = append(selects, GenericSelect{
			Device:   haDevice,
			Id:       id,
			Name:     featureDisplayName(f.Name),
			UniqueId: uniqueId(haDevice.Id, id),
			Options:  options,
		})
	}
	return selects
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {
	var sensors []GenericSensor

	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

// featureDisplayName turns "heating.circuits.0.heating.curve.slope" into
// "Heating circuits 0 heating curve slope".
func featureDisplayName(name string) string {
	display := []rune(SanitizeEntityID(name))
	for i, r := range display {
		if r == '_' {
			display[i] = ' '
		}
	}
	if len(display) > 0 && display[0] >= 'a' && display[0] <= 'z' {
		display[0] = display[0] - 'a' + 'A'
	}
	return string(display)
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5HashShort(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])[0:8]
}
