package actor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cpuig/vicare2mqtt/internal/core/domain"
	"github.com/cpuig/vicare2mqtt/internal/core/events"
	"github.com/cpuig/vicare2mqtt/internal/util/actorutil"
	"github.com/cpuig/vicare2mqtt/pkg/vicare"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

const cloudRequestTimeout = 15 * time.Second

// CloudActor owns the API client and the latest installation snapshot.
// Every request runs as a background task while the actor stashes traffic,
// so the cloud is queried by one in-flight request at a time.
type CloudActor struct {
	behavior       actor.Behavior
	stash          *actorutil.Stash
	client         *vicare.Client
	installationID string
	onlyEnabled    bool
	devices        []vicare.Device
	logger         *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewCloudActor(client *vicare.Client, installationID string, onlyEnabled bool, logger *zap.Logger) *CloudActor {
	act := &CloudActor{
		client:         client,
		installationID: installationID,
		onlyEnabled:    onlyEnabled,
		behavior:       actor.NewBehavior(),
		stash:          &actorutil.Stash{},
		logger:         actorutil.ActorLogger(domain.ACTOR_ID_CLOUD, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *CloudActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *CloudActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("cloud@starting started")
		// fetch the initial snapshot before serving anything
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.fetchSnapshot),
			mapTaskResult[domain.RefreshFeaturesResponse](nil)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.RefreshFeaturesResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
			}
		}).WithTimeout(cloudRequestTimeout).PipeTo(ctx.Self())
	case backgroundTaskResult:
		resp, ok := msg.message.(domain.RefreshFeaturesResponse)
		if !ok || resp.HasResponseError() {
			state.logger.Error("cloud@starting initial snapshot failed", zap.Error(resp.GetResponseError()))
			panic(resp.GetResponseError())
		}
		state.devices = resp.Devices
		state.logger.Debug("cloud@starting snapshot ready", zap.Int("devices", len(resp.Devices)))
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("cloud@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *CloudActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("cloud@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CLOUD,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetDevicesRequest:
		// served from the current snapshot, no network round trip
		state.logger.Debug("cloud@default: GetDevicesRequest")
		actorutil.ForRequest(msg).Respond(ctx, domain.GetDevicesResponse{
			Devices: state.devices,
		})
	case domain.RefreshFeaturesRequest:
		state.logger.Debug("cloud@default: RefreshFeaturesRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.fetchSnapshot),
			mapTaskResult[domain.RefreshFeaturesResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.RefreshFeaturesResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(cloudRequestTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingCloud)
	case domain.ExecuteDeviceCommandRequest:
		state.logger.Debug("cloud@default: ExecuteDeviceCommandRequest",
			zap.String("entity", msg.EntityID), zap.String("payload", msg.Payload))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		feature, cmd, param, decl, err := state.resolveEntity(msg.EntityID)
		if err != nil {
			// local rejection, nothing was sent upstream
			state.logger.Warn("cloud@default: unknown entity", zap.String("entity", msg.EntityID))
			respond(ctx, sender, domain.ExecuteDeviceCommandResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
				EntityID:           msg.EntityID,
			})
			return
		}
		value, err := coercePayload(decl, msg.Payload)
		if err != nil {
			respond(ctx, sender, domain.ExecuteDeviceCommandResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
				EntityID:           msg.EntityID,
			})
			return
		}

		entityID := msg.EntityID
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.ExecuteDeviceCommandResponse, error) {
			result, err := state.client.ExecuteCommand(context.Background(), feature, cmd.Name, map[string]any{param: value})
			if err != nil {
				return nil, err
			}
			return &domain.ExecuteDeviceCommandResponse{
				EntityID: entityID,
				Result:   result,
			}, nil
		}), mapTaskResult[domain.ExecuteDeviceCommandResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.ExecuteDeviceCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
					EntityID: entityID,
				},
				replyTo: sender,
			}
		}).WithTimeout(cloudRequestTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingCloud)
	default:
		state.logger.Debug("cloud@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *CloudActor) WaitingCloud(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("cloud@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if resp, ok := msg.message.(domain.RefreshFeaturesResponse); ok && !resp.HasResponseError() {
			state.devices = resp.Devices
		}
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, msg.message)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("cloud@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *CloudActor) fetchSnapshot() (*domain.RefreshFeaturesResponse, error) {
	devices, err := a.client.GetFullInstallationStatus(context.Background(), a.installationID, a.onlyEnabled)
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.RefreshFeaturesResponse{
		Devices: devices,
	}, nil
}

// resolveEntity finds the writable flat feature behind an MQTT entity id in
// the latest snapshot.
func (a *CloudActor) resolveEntity(entityID string) (vicare.Feature, vicare.Command, string, vicare.ParamDecl, error) {
	for _, dev := range a.devices {
		for _, f := range dev.FeaturesFlat {
			if events.EntityID(dev, f) != entityID {
				continue
			}
			cmd, param, decl, ok := events.WritableParam(f)
			if !ok {
				return vicare.Feature{}, vicare.Command{}, "", vicare.ParamDecl{},
					fmt.Errorf("entity %s is not writable", entityID)
			}
			return f, cmd, param, decl, nil
		}
	}
	return vicare.Feature{}, vicare.Command{}, "", vicare.ParamDecl{},
		fmt.Errorf("unknown entity %s", entityID)
}

// coercePayload converts the raw MQTT payload to the declared parameter
// type. Constraint validation itself happens in the client before any call.
func coercePayload(decl vicare.ParamDecl, payload string) (any, error) {
	switch decl.Type {
	case "number":
		return strconv.ParseFloat(payload, 64)
	case "boolean":
		switch payload {
		case "on", "true", "1":
			return true, nil
		case "off", "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("invalid boolean payload %q", payload)
	default:
		return payload, nil
	}
}

func respond(ctx actor.Context, replyTo *actor.PID, msg any) {
	if replyTo != nil {
		ctx.Send(replyTo, msg)
	}
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
