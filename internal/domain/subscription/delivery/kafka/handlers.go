package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/consts"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/deps"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/dto"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/entities"
	suberrors "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/errors"
	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

// Command statuses reported to metrics
const (
	statusOK        = "ok"
	statusRejected  = "rejected"
	statusFailed    = "failed"
	statusMalformed = "malformed"
)

var errUnknownCommand = errors.New("unknown command type")

// EventHandler consumes subscription.commands and answers every command on
// subscription.results. It implements sarama.ConsumerGroupHandler.
type EventHandler struct {
	usecase   deps.SubscriptionUseCase
	tiers     deps.TierResolver
	results   deps.ResultPublisher
	metrics   deps.CommandMetrics
	logger    zerolog.Logger
	processed atomic.Uint64
	errors    atomic.Uint64
}

func NewEventHandler(
	usecase deps.SubscriptionUseCase,
	tiers deps.TierResolver,
	results deps.ResultPublisher,
	metrics deps.CommandMetrics,
	logger zerolog.Logger,
) *EventHandler {
	return &EventHandler{
		usecase: usecase,
		tiers:   tiers,
		results: results,
		metrics: metrics,
		logger:  logger,
	}
}

func (h *EventHandler) Setup(session sarama.ConsumerGroupSession) error {
	h.logger.Info().
		Int32("generation_id", session.GenerationID()).
		Str("member_id", session.MemberID()).
		Msg("consumer group session started")
	return nil
}

func (h *EventHandler) Cleanup(session sarama.ConsumerGroupSession) error {
	h.logger.Info().
		Int32("generation_id", session.GenerationID()).
		Uint64("processed_total", h.processed.Load()).
		Uint64("errors_total", h.errors.Load()).
		Msg("consumer group session ended")
	return nil
}

// ConsumeClaim handles the messages of one partition. Every message is
// marked, including the ones that failed, so a bad command never blocks
// the partition.
func (h *EventHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()

	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			if err := h.processMessage(ctx, msg); err != nil {
				h.logger.Error().
					Err(err).
					Str("topic", msg.Topic).
					Int32("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("failed to process command, skipping")
			}

			session.MarkMessage(msg, "")
		}
	}
}

func (h *EventHandler) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	start := time.Now()
	defer func() {
		h.processed.Add(1)
		h.logger.Debug().
			Dur("duration", time.Since(start)).
			Uint64("processed_total", h.processed.Load()).
			Uint64("errors_total", h.errors.Load()).
			Msg("command processed")
	}()

	var cmd dto.CommandEvent
	if err := json.Unmarshal(msg.Value, &cmd); err != nil {
		h.errors.Add(1)
		h.metrics.RecordCommand("", statusMalformed)
		return fmt.Errorf("unmarshal command: %w", err)
	}

	reply, err := h.Handle(ctx, &cmd)
	switch {
	case err == nil:
		h.metrics.RecordCommand(cmd.Type, statusOK)
	case errors.Is(err, errUnknownCommand) || suberrors.KindOf(err) == suberrors.KindInternal || suberrors.Transient(err):
		h.errors.Add(1)
		h.metrics.RecordCommand(cmd.Type, statusFailed)
	default:
		h.metrics.RecordCommand(cmd.Type, statusRejected)
	}

	if pubErr := h.results.PublishResult(ctx, reply); pubErr != nil {
		h.errors.Add(1)
		return fmt.Errorf("publish result: %w", pubErr)
	}

	return nil
}

// Handle executes one command and builds its reply. The reply is always
// non-nil; err is the failure it carries, if any.
func (h *EventHandler) Handle(ctx context.Context, cmd *dto.CommandEvent) (*dto.ResultEvent, error) {
	reply := &dto.ResultEvent{
		Type:      cmd.Type,
		RequestID: cmd.RequestID,
		UserID:    cmd.UserID,
	}

	var err error
	switch cmd.Type {
	case consts.CommandCreatureAdd:
		if isAll(cmd.Species) {
			reply.Ticket, err = h.requestBulk(ctx, cmd, entities.BulkSubscribeAllCreatures)
			break
		}
		reply.Result, err = h.usecase.AddCreatureFilters(ctx, dto.CreatureFilterRequest{
			UserID:       cmd.UserID,
			Species:      cmd.Species,
			MinimumIV:    cmd.IV,
			MinimumLevel: cmd.Level,
			Gender:       cmd.Gender,
		}, h.tiers.Classify(ctx, cmd.UserID))

	case consts.CommandCreatureRemove:
		if isAll(cmd.Species) {
			reply.Ticket, err = h.requestBulk(ctx, cmd, entities.BulkRemoveAllCreatures)
			break
		}
		reply.Result, err = h.usecase.RemoveCreatureFilters(ctx, cmd.UserID, cmd.Species)

	case consts.CommandRaidAdd:
		if isAll(cmd.Species) {
			reply.Ticket, err = h.requestBulk(ctx, cmd, entities.BulkSubscribeAllRaids)
			break
		}
		reply.Result, err = h.usecase.AddRaidFilters(ctx, dto.RaidFilterRequest{
			UserID:  cmd.UserID,
			Species: cmd.Species,
			City:    cmd.City,
		}, h.tiers.Classify(ctx, cmd.UserID))

	case consts.CommandRaidRemove:
		if isAll(cmd.Species) {
			reply.Ticket, err = h.requestBulk(ctx, cmd, entities.BulkRemoveAllRaids)
			break
		}
		reply.Result, err = h.usecase.RemoveRaidFilters(ctx, dto.RaidFilterRequest{
			UserID:  cmd.UserID,
			Species: cmd.Species,
			City:    cmd.City,
		})

	case consts.CommandBulkRequest:
		reply.Ticket, err = h.requestBulk(ctx, cmd, cmd.Bulk)

	case consts.CommandBulkConfirm:
		reply.Result, err = h.usecase.ConfirmBulk(ctx, cmd.UserID, cmd.Token, cmd.Confirm)

	case consts.CommandSetEnabled:
		reply.Result, err = h.usecase.SetEnabled(ctx, cmd.UserID, cmd.Enabled)

	case consts.CommandInfo:
		reply.View, err = h.usecase.GetSubscriptions(ctx, cmd.UserID, cmd.TargetUserID)

	default:
		h.logger.Warn().
			Str("type", cmd.Type).
			Str("request_id", cmd.RequestID).
			Msg("received unknown command type")
		err = fmt.Errorf("%w: %q", errUnknownCommand, cmd.Type)
	}

	reply.Timestamp = time.Now().Unix()
	if err != nil {
		reply.Kind = suberrors.KindOf(err)
		reply.Error = err.Error()

		h.logger.Info().
			Err(err).
			Str("type", cmd.Type).
			Str("request_id", cmd.RequestID).
			Int64("user_id", cmd.UserID).
			Str("kind", string(reply.Kind)).
			Msg("command rejected")
	}

	return reply, err
}

func (h *EventHandler) requestBulk(ctx context.Context, cmd *dto.CommandEvent, kind entities.BulkKind) (*dto.BulkTicket, error) {
	return h.usecase.RequestBulk(ctx, dto.BulkRequest{
		UserID:       cmd.UserID,
		Kind:         kind,
		MinimumIV:    cmd.IV,
		MinimumLevel: cmd.Level,
		Gender:       cmd.Gender,
		City:         cmd.City,
	}, h.tiers.Classify(ctx, cmd.UserID))
}

// isAll reports whether a species list is the "all" keyword
func isAll(species string) bool {
	return strings.EqualFold(strings.TrimSpace(species), "all")
}
