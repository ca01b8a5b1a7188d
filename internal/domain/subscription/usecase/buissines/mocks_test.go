package buissines

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/dto"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/entities"
	suberrors "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/errors"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/tier"
)

type memRepo struct {
	mu       sync.Mutex
	subs     map[int64]*entities.Subscription
	saves    int
	failSave bool
}

func newMemRepo() *memRepo {
	return &memRepo{subs: make(map[int64]*entities.Subscription)}
}

func (r *memRepo) Exists(ctx context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.subs[userID]
	return ok, nil
}

func (r *memRepo) Get(ctx context.Context, userID int64) (*entities.Subscription, error) {
	r.mu.Lock()
	sub, ok := r.subs[userID]
	r.mu.Unlock()

	// widen the read-modify-write window so lost updates would show up
	time.Sleep(time.Millisecond)

	if !ok {
		return entities.NewSubscription(userID), nil
	}
	return sub.Clone(), nil
}

func (r *memRepo) Save(ctx context.Context, sub *entities.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return suberrors.ErrStorageFailure
	}
	r.saves++
	r.subs[sub.UserID] = sub.Clone()
	return nil
}

func (r *memRepo) stored(userID int64) *entities.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub, ok := r.subs[userID]; ok {
		return sub.Clone()
	}
	return nil
}

func (r *memRepo) put(sub *entities.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.UserID] = sub.Clone()
}

type memPending struct {
	mu  sync.Mutex
	ops map[string]entities.PendingBulk
}

func newMemPending() *memPending {
	return &memPending{ops: make(map[string]entities.PendingBulk)}
}

func (p *memPending) Put(ctx context.Context, op *entities.PendingBulk, ttl time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops[op.Token] = *op
	return nil
}

func (p *memPending) Take(ctx context.Context, userID int64, token string) (*entities.PendingBulk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	op, ok := p.ops[token]
	if !ok || op.UserID != userID {
		return nil, suberrors.ErrConfirmationNotFound
	}
	delete(p.ops, token)
	return &op, nil
}

// expire drops every pending operation as if its TTL had elapsed
func (p *memPending) expire() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = make(map[string]entities.PendingBulk)
}

type publisherMock struct {
	mu     sync.Mutex
	events []*dto.ChangedEvent
	err    error
}

func (p *publisherMock) PublishChanged(ctx context.Context, event *dto.ChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type tierMock struct {
	mu    sync.Mutex
	tiers map[int64]tier.Tier
}

func (m *tierMock) Classify(ctx context.Context, userID int64) tier.Tier {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tiers[userID]
}

func (m *tierMock) set(userID int64, t tier.Tier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiers[userID] = t
}

type metricsMock struct{}

func (metricsMock) RecordOperation(operation, outcome string, duration float64) {}
func (metricsMock) RecordItem(operation, outcome string)                        {}
func (metricsMock) RecordRejection(operation, kind string)                      {}
func (metricsMock) RecordStorageFailure()                                       {}
func (metricsMock) RecordBulkTransition(kind, state string)                     {}

type confirmerMock struct {
	answer bool
	err    error
	prompt string
}

func (c *confirmerMock) Ask(ctx context.Context, userID int64, prompt string) (bool, error) {
	c.prompt = prompt
	if c.err != nil {
		return false, c.err
	}
	return c.answer, nil
}

// slowConfirmer never answers before the context ends
type slowConfirmer struct{}

func (slowConfirmer) Ask(ctx context.Context, userID int64, prompt string) (bool, error) {
	<-ctx.Done()
	return false, errors.New("no answer: " + ctx.Err().Error())
}
