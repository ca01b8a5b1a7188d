package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/consts"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/deps"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/dto"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/entities"
	suberrors "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/errors"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/tier"
	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type useCaseMock struct {
	calls    []string
	tier     tier.Tier
	creature dto.CreatureFilterRequest
	raid     dto.RaidFilterRequest
	bulk     dto.BulkRequest
	err      error
}

func (m *useCaseMock) AddCreatureFilters(ctx context.Context, req dto.CreatureFilterRequest, t tier.Tier) (*dto.Result, error) {
	m.calls = append(m.calls, "AddCreatureFilters")
	m.creature, m.tier = req, t
	return &dto.Result{UserID: req.UserID, Outcome: dto.OutcomeApplied}, m.err
}

func (m *useCaseMock) RemoveCreatureFilters(ctx context.Context, userID int64, species string) (*dto.Result, error) {
	m.calls = append(m.calls, "RemoveCreatureFilters")
	return &dto.Result{UserID: userID, Outcome: dto.OutcomeApplied}, m.err
}

func (m *useCaseMock) AddRaidFilters(ctx context.Context, req dto.RaidFilterRequest, t tier.Tier) (*dto.Result, error) {
	m.calls = append(m.calls, "AddRaidFilters")
	m.raid, m.tier = req, t
	return &dto.Result{UserID: req.UserID, Outcome: dto.OutcomeApplied}, m.err
}

func (m *useCaseMock) RemoveRaidFilters(ctx context.Context, req dto.RaidFilterRequest) (*dto.Result, error) {
	m.calls = append(m.calls, "RemoveRaidFilters")
	m.raid = req
	return &dto.Result{UserID: req.UserID, Outcome: dto.OutcomeApplied}, m.err
}

func (m *useCaseMock) RequestBulk(ctx context.Context, req dto.BulkRequest, t tier.Tier) (*dto.BulkTicket, error) {
	m.calls = append(m.calls, "RequestBulk")
	m.bulk, m.tier = req, t
	if m.err != nil {
		return nil, m.err
	}
	return &dto.BulkTicket{Token: "tok", UserID: req.UserID, Kind: req.Kind}, nil
}

func (m *useCaseMock) ConfirmBulk(ctx context.Context, userID int64, token string, confirm bool) (*dto.Result, error) {
	m.calls = append(m.calls, "ConfirmBulk")
	return &dto.Result{UserID: userID, Outcome: dto.OutcomeApplied}, m.err
}

func (m *useCaseMock) RunBulk(ctx context.Context, req dto.BulkRequest, t tier.Tier, confirmer deps.Confirmer) (*dto.Result, error) {
	m.calls = append(m.calls, "RunBulk")
	return &dto.Result{UserID: req.UserID}, m.err
}

func (m *useCaseMock) SetEnabled(ctx context.Context, userID int64, enabled bool) (*dto.Result, error) {
	m.calls = append(m.calls, "SetEnabled")
	return &dto.Result{UserID: userID, Outcome: dto.OutcomeUpdated}, m.err
}

func (m *useCaseMock) GetSubscriptions(ctx context.Context, viewerID, targetID int64) (*dto.SubscriptionsView, error) {
	m.calls = append(m.calls, "GetSubscriptions")
	if m.err != nil {
		return nil, m.err
	}
	return &dto.SubscriptionsView{UserID: targetID}, nil
}

type fixedTier tier.Tier

func (f fixedTier) Classify(ctx context.Context, userID int64) tier.Tier {
	return tier.Tier(f)
}

type resultsMock struct {
	mu     sync.Mutex
	events []*dto.ResultEvent
	err    error
}

func (r *resultsMock) PublishResult(ctx context.Context, event *dto.ResultEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

type commandMetricsMock struct {
	mu       sync.Mutex
	statuses map[string]string
}

func (m *commandMetricsMock) RecordCommand(commandType, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[commandType] = status
}

func newHandler(uc *useCaseMock, t tier.Tier) (*EventHandler, *resultsMock, *commandMetricsMock) {
	results := &resultsMock{}
	metrics := &commandMetricsMock{statuses: make(map[string]string)}
	return NewEventHandler(uc, fixedTier(t), results, metrics, zerolog.Nop()), results, metrics
}

func TestHandle_Dispatch(t *testing.T) {
	tests := []struct {
		name string
		cmd  dto.CommandEvent
		call string
		bulk entities.BulkKind
	}{
		{"creature add", dto.CommandEvent{Type: consts.CommandCreatureAdd, Species: "pidgey", IV: 98}, "AddCreatureFilters", ""},
		{"creature add all", dto.CommandEvent{Type: consts.CommandCreatureAdd, Species: " ALL ", IV: 90}, "RequestBulk", entities.BulkSubscribeAllCreatures},
		{"creature remove", dto.CommandEvent{Type: consts.CommandCreatureRemove, Species: "16"}, "RemoveCreatureFilters", ""},
		{"creature remove all", dto.CommandEvent{Type: consts.CommandCreatureRemove, Species: "all"}, "RequestBulk", entities.BulkRemoveAllCreatures},
		{"raid add", dto.CommandEvent{Type: consts.CommandRaidAdd, Species: "mewtwo", City: "Ontario"}, "AddRaidFilters", ""},
		{"raid add all", dto.CommandEvent{Type: consts.CommandRaidAdd, Species: "all", City: "Ontario"}, "RequestBulk", entities.BulkSubscribeAllRaids},
		{"raid remove", dto.CommandEvent{Type: consts.CommandRaidRemove, Species: "mewtwo"}, "RemoveRaidFilters", ""},
		{"raid remove all", dto.CommandEvent{Type: consts.CommandRaidRemove, Species: "all"}, "RequestBulk", entities.BulkRemoveAllRaids},
		{"bulk request", dto.CommandEvent{Type: consts.CommandBulkRequest, Bulk: entities.BulkRemoveAllRaids}, "RequestBulk", entities.BulkRemoveAllRaids},
		{"bulk confirm", dto.CommandEvent{Type: consts.CommandBulkConfirm, Token: "tok", Confirm: true}, "ConfirmBulk", ""},
		{"set enabled", dto.CommandEvent{Type: consts.CommandSetEnabled, Enabled: true}, "SetEnabled", ""},
		{"info", dto.CommandEvent{Type: consts.CommandInfo, TargetUserID: 9}, "GetSubscriptions", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &useCaseMock{}
			h, _, _ := newHandler(uc, tier.Supporter)

			tt.cmd.UserID = 7
			tt.cmd.RequestID = "req-1"
			reply, err := h.Handle(context.Background(), &tt.cmd)
			require.NoError(t, err)

			assert.Equal(t, []string{tt.call}, uc.calls)
			assert.Equal(t, tt.cmd.Type, reply.Type)
			assert.Equal(t, "req-1", reply.RequestID)
			assert.Equal(t, int64(7), reply.UserID)
			assert.NotZero(t, reply.Timestamp)
			assert.Empty(t, reply.Error)

			if tt.bulk != "" {
				assert.Equal(t, tt.bulk, uc.bulk.Kind)
				require.NotNil(t, reply.Ticket)
				assert.Equal(t, "tok", reply.Ticket.Token)
			}
		})
	}
}

func TestHandle_PassesParameters(t *testing.T) {
	uc := &useCaseMock{}
	h, _, _ := newHandler(uc, tier.Moderator)

	_, err := h.Handle(context.Background(), &dto.CommandEvent{
		Type: consts.CommandCreatureAdd, UserID: 3, Species: "pidgey,16", IV: 90, Level: 20, Gender: "f",
	})
	require.NoError(t, err)

	assert.Equal(t, dto.CreatureFilterRequest{UserID: 3, Species: "pidgey,16", MinimumIV: 90, MinimumLevel: 20, Gender: "f"}, uc.creature)
	assert.Equal(t, tier.Moderator, uc.tier)

	_, err = h.Handle(context.Background(), &dto.CommandEvent{Type: consts.CommandRaidAdd, UserID: 3, Species: "all", City: "upland"})
	require.NoError(t, err)
	assert.Equal(t, "upland", uc.bulk.City)
}

func TestHandle_Rejection(t *testing.T) {
	uc := &useCaseMock{err: suberrors.ErrQuotaExceeded}
	h, _, _ := newHandler(uc, tier.Standard)

	reply, err := h.Handle(context.Background(), &dto.CommandEvent{Type: consts.CommandInfo, UserID: 1})
	assert.ErrorIs(t, err, suberrors.ErrQuotaExceeded)
	assert.Equal(t, suberrors.KindQuotaExceeded, reply.Kind)
	assert.NotEmpty(t, reply.Error)
	assert.Nil(t, reply.View)
}

func TestHandle_UnknownCommand(t *testing.T) {
	uc := &useCaseMock{}
	h, _, _ := newHandler(uc, tier.Standard)

	reply, err := h.Handle(context.Background(), &dto.CommandEvent{Type: "teleport", UserID: 1})
	assert.ErrorIs(t, err, errUnknownCommand)
	assert.Equal(t, suberrors.KindInternal, reply.Kind)
	assert.Empty(t, uc.calls)
}

type sessionMock struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *sessionMock) Claims() map[string][]int32                                               { return nil }
func (s *sessionMock) MemberID() string                                                         { return "member-1" }
func (s *sessionMock) GenerationID() int32                                                      { return 1 }
func (s *sessionMock) MarkOffset(topic string, partition int32, offset int64, metadata string)  {}
func (s *sessionMock) Commit()                                                                  {}
func (s *sessionMock) ResetOffset(topic string, partition int32, offset int64, metadata string) {}
func (s *sessionMock) Context() context.Context                                                 { return s.ctx }

func (s *sessionMock) MarkMessage(msg *sarama.ConsumerMessage, metadata string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type claimMock struct {
	messages chan *sarama.ConsumerMessage
}

func (c *claimMock) Topic() string                            { return consts.TopicSubscriptionCommands }
func (c *claimMock) Partition() int32                         { return 0 }
func (c *claimMock) InitialOffset() int64                     { return 0 }
func (c *claimMock) HighWaterMarkOffset() int64               { return 0 }
func (c *claimMock) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func message(t *testing.T, offset int64, v any) *sarama.ConsumerMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: consts.TopicSubscriptionCommands, Offset: offset, Value: data}
}

func TestConsumeClaim(t *testing.T) {
	uc := &useCaseMock{}
	h, results, metrics := newHandler(uc, tier.Standard)

	claim := &claimMock{messages: make(chan *sarama.ConsumerMessage, 3)}
	claim.messages <- message(t, 1, dto.CommandEvent{Type: consts.CommandSetEnabled, UserID: 5, RequestID: "a"})
	claim.messages <- &sarama.ConsumerMessage{Topic: consts.TopicSubscriptionCommands, Offset: 2, Value: []byte("{not json")}
	claim.messages <- message(t, 3, dto.CommandEvent{Type: "teleport", UserID: 5, RequestID: "b"})
	close(claim.messages)

	session := &sessionMock{ctx: context.Background()}
	require.NoError(t, h.ConsumeClaim(session, claim))

	assert.Equal(t, []int64{1, 2, 3}, session.marked)

	require.Len(t, results.events, 2)
	assert.Equal(t, "a", results.events[0].RequestID)
	assert.Equal(t, dto.OutcomeUpdated, results.events[0].Result.Outcome)
	assert.Equal(t, "b", results.events[1].RequestID)
	assert.NotEmpty(t, results.events[1].Error)

	assert.Equal(t, statusOK, metrics.statuses[consts.CommandSetEnabled])
	assert.Equal(t, statusMalformed, metrics.statuses[""])
	assert.Equal(t, statusFailed, metrics.statuses["teleport"])
	assert.Equal(t, uint64(3), h.processed.Load())
	assert.Equal(t, uint64(2), h.errors.Load())
}

func TestConsumeClaim_RejectedCommandIsNotAnError(t *testing.T) {
	uc := &useCaseMock{err: suberrors.ErrNotSubscribed}
	h, results, metrics := newHandler(uc, tier.Standard)

	claim := &claimMock{messages: make(chan *sarama.ConsumerMessage, 1)}
	claim.messages <- message(t, 1, dto.CommandEvent{Type: consts.CommandSetEnabled, UserID: 5})
	close(claim.messages)

	require.NoError(t, h.ConsumeClaim(&sessionMock{ctx: context.Background()}, claim))

	require.Len(t, results.events, 1)
	assert.Equal(t, suberrors.KindNotSubscribed, results.events[0].Kind)
	assert.Equal(t, statusRejected, metrics.statuses[consts.CommandSetEnabled])
	assert.Zero(t, h.errors.Load())
}

func TestConsumeClaim_PublishFailureStillMarks(t *testing.T) {
	uc := &useCaseMock{}
	h, results, _ := newHandler(uc, tier.Standard)
	results.err = errors.New("broker down")

	claim := &claimMock{messages: make(chan *sarama.ConsumerMessage, 1)}
	claim.messages <- message(t, 4, dto.CommandEvent{Type: consts.CommandSetEnabled, UserID: 5})
	close(claim.messages)

	session := &sessionMock{ctx: context.Background()}
	require.NoError(t, h.ConsumeClaim(session, claim))

	assert.Equal(t, []int64{4}, session.marked)
	assert.Equal(t, uint64(1), h.errors.Load())
}

func TestConsumeClaim_StopsOnCancel(t *testing.T) {
	h, _, _ := newHandler(&useCaseMock{}, tier.Standard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- h.ConsumeClaim(&sessionMock{ctx: ctx}, &claimMock{messages: make(chan *sarama.ConsumerMessage)})
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("ConsumeClaim did not return after cancel")
	}
}
