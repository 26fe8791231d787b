package actor

import (
	"testing"
	"time"

	"github.com/cpuig/vicare2mqtt/internal/core/domain"
	"github.com/cpuig/vicare2mqtt/internal/util/actorutil"
	"github.com/cpuig/vicare2mqtt/pkg/vicare"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func spawnTestCloudActor(t *testing.T) (*actor.ActorSystem, *actor.PID, *vicare.FakeTransport) {
	t.Helper()

	client, transport := vicare.NewTestClient()
	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewCloudActor(client, vicare.TestInstallationID, false, logger)
	})
	pid := as.Root.Spawn(props)

	time.Sleep(1 * time.Second)

	return as, pid, transport
}

func TestGetDevicesCloudActor(t *testing.T) {

	assert := assert.New(t)

	as, pid, _ := spawnTestCloudActor(t)
	context := as.Root

	result, err := context.RequestFuture(pid, domain.GetDevicesRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetDevicesResponse)

	assert.Equal(1, len(resp.Devices), "device count")
	assert.Equal(vicare.TestDeviceID, resp.Devices[0].ID, "device id")
	assert.Equal("Vitodens200W", resp.Devices[0].ModelID, "device model")
	assert.Equal(8, len(resp.Devices[0].FeaturesFlat), "flat feature count")

	context.Stop(pid)

	as.Shutdown()
}

func TestExecuteCommandCloudActor(t *testing.T) {

	assert := assert.New(t)

	as, pid, transport := spawnTestCloudActor(t)
	context := as.Root

	msg := domain.ExecuteDeviceCommandRequest{
		EntityID: "0_heating_dhw_temperature_main",
		Payload:  "52",
	}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.ExecuteDeviceCommandResponse)

	assert.False(resp.HasResponseError(), "no response error")
	assert.True(resp.Result.Success, "command success")

	post, ok := transport.LastPost()
	assert.True(ok, "command was posted")
	assert.Equal("https://api.example/operations/setTargetTemperature", post.Path, "command uri")
	assert.Equal(map[string]any{"temperature": 52.0}, post.Body, "command params")

	context.Stop(pid)

	as.Shutdown()
}

func TestExecuteCommandCloudActorOutOfRange(t *testing.T) {

	assert := assert.New(t)

	as, pid, transport := spawnTestCloudActor(t)
	context := as.Root

	// constraint max is 60, must be rejected before anything hits the wire
	msg := domain.ExecuteDeviceCommandRequest{
		EntityID: "0_heating_dhw_temperature_main",
		Payload:  "65",
	}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.ExecuteDeviceCommandResponse)

	assert.True(resp.HasResponseError(), "response error")
	var valErr *vicare.ValidationError
	assert.ErrorAs(resp.GetResponseError(), &valErr, "validation error type")

	_, posted := transport.LastPost()
	assert.False(posted, "no POST for rejected command")

	context.Stop(pid)

	as.Shutdown()
}

func TestExecuteCommandCloudActorUnknownEntity(t *testing.T) {

	assert := assert.New(t)

	as, pid, transport := spawnTestCloudActor(t)
	context := as.Root

	msg := domain.ExecuteDeviceCommandRequest{
		EntityID: "0_no_such_feature",
		Payload:  "1",
	}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.ExecuteDeviceCommandResponse)

	assert.True(resp.HasResponseError(), "response error")

	_, posted := transport.LastPost()
	assert.False(posted, "no POST for unknown entity")

	context.Stop(pid)

	as.Shutdown()
}

func TestRefreshFeaturesCloudActor(t *testing.T) {

	assert := assert.New(t)

	as, pid, _ := spawnTestCloudActor(t)
	context := as.Root

	result, err := context.RequestFuture(pid, domain.RefreshFeaturesRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.RefreshFeaturesResponse)

	assert.False(resp.HasResponseError(), "no response error")
	assert.Equal(1, len(resp.Devices), "device count")

	context.Stop(pid)

	as.Shutdown()
}
