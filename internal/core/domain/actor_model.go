package domain

import "github.com/cpuig/vicare2mqtt/pkg/vicare"

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_CLOUD        = "cloud"
	ACTOR_ID_POLLER       = "poller"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type GetDevicesRequest struct {
	ActorRequestMixIn
}

type GetDevicesResponse struct {
	ActorResponseMixIn
	Devices []vicare.Device
}

type RefreshFeaturesRequest struct {
	ActorRequestMixIn
}

type RefreshFeaturesResponse struct {
	ActorResponseMixIn
	Devices []vicare.Device
}

// ExecuteDeviceCommandRequest asks the cloud actor to run the writable
// feature command behind an MQTT entity. EntityID is the sanitized flat
// feature id used on the command topic, Payload the raw MQTT payload.
type ExecuteDeviceCommandRequest struct {
	ActorRequestMixIn
	EntityID string
	Payload  string
}

type ExecuteDeviceCommandResponse struct {
	ActorResponseMixIn
	EntityID string
	Result   vicare.CommandResponse
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors      []GenericSensor
	InputNumbers []GenericInputNumber
	Selects      []GenericSelect
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
