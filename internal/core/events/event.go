package events

import (
	"strings"

	. "github.com/cpuig/vicare2mqtt/internal/core/domain"
	"github.com/cpuig/vicare2mqtt/pkg/vicare"
)

const (
	SENSOR_ID_BRIDGE_STATE       = "bridge"
	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"
	DEVICE_CLASS_TEMPERATURE     = "temperature"
	DEVICE_CLASS_POWER           = "power"
	DEVICE_CLASS_ENERGY          = "energy"
	DEVICE_CLASS_VOLUME          = "volume"
	DEVICE_CLASS_CONNECTIVITY    = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC      = "diagnostic"
	SENSOR_TYPE_SENSOR           = "sensor"
	SENSOR_TYPE_BINARY           = "binary_sensor"
	INPUT_NUMBER_MODE_BOX        = "box"
)

// EntityID is the stable MQTT identifier of one flat feature of a device.
// It must be reversible by scanning a snapshot, so it is derived from the
// device id and the flat feature name only.
func EntityID(dev vicare.Device, f vicare.Feature) string {
	return SanitizeEntityID(dev.ID + "_" + f.Name)
}

// SanitizeEntityID lowers a feature name into an MQTT/HA-safe id.
func SanitizeEntityID(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// WritableParam returns the single executable command of a flat feature
// together with its only parameter, when the feature is controllable from a
// single-valued MQTT entity. Multi-parameter commands stay API-only.
func WritableParam(f vicare.Feature) (cmd vicare.Command, param string, decl vicare.ParamDecl, ok bool) {
	var found bool
	for _, c := range f.Commands {
		if !c.IsExecutable || len(c.Params) != 1 {
			continue
		}
		if found {
			return vicare.Command{}, "", vicare.ParamDecl{}, false
		}
		for name, d := range c.Params {
			cmd, param, decl = c, name, d
		}
		found = true
	}
	return cmd, param, decl, found
}

// DeviceUpdateEvents converts one device snapshot into sensor update events,
// one per flat feature carrying a scalar value.
func DeviceUpdateEvents(dev vicare.Device) []any {
	var events []any
	for _, f := range dev.FeaturesFlat {
		id := EntityID(dev, f)
		_, _, decl, writable := WritableParam(f)
		switch value := f.Value().(type) {
		case bool:
			events = append(events, BinarySensorUpdateEvent{
				SensorUpdateEventMixIn: SensorUpdateEventMixIn{Id: id},
				Value:                  value,
			})
		case float64:
			if writable && decl.Type == "number" {
				events = append(events, InputNumberSensorUpdateEvent{
					SensorUpdateEventMixIn: SensorUpdateEventMixIn{Id: id},
					Value:                  value,
					Decimals:               2,
				})
			} else {
				events = append(events, FloatSensorUpdateEvent{
					SensorUpdateEventMixIn: SensorUpdateEventMixIn{Id: id},
					Value:                  value,
					Decimals:               2,
				})
			}
		case string:
			if writable && len(decl.Constraints.Enum) > 0 {
				events = append(events, SelectSensorUpdateEvent{
					SensorUpdateEventMixIn: SensorUpdateEventMixIn{Id: id},
					Value:                  value,
				})
			} else {
				events = append(events, TextSensorUpdateEvent{
					SensorUpdateEventMixIn: SensorUpdateEventMixIn{Id: id},
					Value:                  value,
				})
			}
		}
	}
	return events
}

func BridgeStateEvent(online bool) any {
	return BridgeStateUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{Id: SENSOR_ID_BRIDGE_STATE},
		Value:                  online,
	}
}

// unitSymbol translates the API unit vocabulary into the symbols Home
// Assistant expects. Unknown units pass through unchanged.
func unitSymbol(unit string) string {
	switch unit {
	case "celsius":
		return "°C"
	case "kelvin":
		return "K"
	case "percent":
		return "%"
	case "watt":
		return "W"
	case "kilowatt":
		return "kW"
	case "kilowattHour":
		return "kWh"
	case "cubicMeter":
		return "m³"
	case "hour", "hours":
		return "h"
	default:
		return unit
	}
}

func deviceClassForUnit(unit string) string {
	switch unit {
	case "celsius", "kelvin":
		return DEVICE_CLASS_TEMPERATURE
	case "watt", "kilowatt":
		return DEVICE_CLASS_POWER
	case "kilowattHour":
		return DEVICE_CLASS_ENERGY
	case "cubicMeter":
		return DEVICE_CLASS_VOLUME
	default:
		return ""
	}
}

func stateClassForUnit(unit string) string {
	switch unit {
	case "kilowattHour", "cubicMeter":
		return STATE_CLASS_TOTAL_INCREASING
	default:
		return STATE_CLASS_MEASUREMENT
	}
}
