package buissines

import (
	"context"
	"fmt"
	"time"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/deps"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/dto"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/entities"
	suberrors "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/errors"
	"github.com/Conte777/SpawnFeed/subscription-service/pkg/keymutex"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type UseCase struct {
	repo           deps.SubscriptionRepository
	catalog        deps.Catalog
	pending        deps.PendingBulkStore
	publisher      deps.ChangePublisher
	tiers          deps.TierResolver
	metrics        deps.Metrics
	locks          *keymutex.KeyedMutex[int64]
	confirmTimeout time.Duration
	newToken       func() string
	now            func() time.Time
	logger         zerolog.Logger
}

func NewUseCase(
	repo deps.SubscriptionRepository,
	catalog deps.Catalog,
	pending deps.PendingBulkStore,
	publisher deps.ChangePublisher,
	tiers deps.TierResolver,
	metrics deps.Metrics,
	confirmTimeout time.Duration,
	logger zerolog.Logger,
) *UseCase {
	return &UseCase{
		repo:           repo,
		catalog:        catalog,
		pending:        pending,
		publisher:      publisher,
		tiers:          tiers,
		metrics:        metrics,
		locks:          keymutex.New[int64](),
		confirmTimeout: confirmTimeout,
		newToken:       uuid.NewString,
		now:            time.Now,
		logger:         logger,
	}
}

// load returns the stored aggregate and a working copy of it
func (u *UseCase) load(ctx context.Context, userID int64) (*entities.Subscription, error) {
	sub, err := u.repo.Get(ctx, userID)
	if err != nil {
		u.metrics.RecordStorageFailure()
		u.logger.Error().Err(err).
			Int64("user_id", userID).
			Msg("failed to load subscription")
		return nil, err
	}
	return sub.Clone(), nil
}

// commit persists work and announces the new state. The change event is
// best effort; a failed publish never fails the operation.
func (u *UseCase) commit(ctx context.Context, work *entities.Subscription) error {
	if err := u.repo.Save(ctx, work); err != nil {
		u.metrics.RecordStorageFailure()
		u.logger.Error().Err(err).
			Int64("user_id", work.UserID).
			Msg("failed to save subscription")
		return fmt.Errorf("save subscription: %w", err)
	}

	event := dto.NewChangedEvent(work, u.catalog.DisplayName)
	if err := u.publisher.PublishChanged(ctx, event); err != nil {
		u.logger.Warn().Err(err).
			Int64("user_id", work.UserID).
			Msg("failed to publish subscription change")
	}

	return nil
}

// reject marks the whole request as failed and returns err alongside it
func (u *UseCase) reject(res *dto.Result, err error) (*dto.Result, error) {
	res.Outcome = dto.OutcomeRejected
	res.Kind = suberrors.KindOf(err)
	res.Message = err.Error()
	u.metrics.RecordRejection(res.Operation, string(res.Kind))
	return res, err
}

// failStorage turns every pending success into a storage failure, so a
// failed save is never reported as applied.
func (u *UseCase) failStorage(res *dto.Result, err error) (*dto.Result, error) {
	for i := range res.Items {
		switch res.Items[i].Outcome {
		case dto.OutcomeCreated, dto.OutcomeUpdated, dto.OutcomeRemoved:
			res.Items[i].Outcome = dto.OutcomeRejected
			res.Items[i].Kind = suberrors.KindStorageFailure
			res.Items[i].Message = ""
		}
	}
	return u.reject(res, err)
}

// settle derives the overall outcome from the item outcomes
func settle(res *dto.Result) {
	if res.Changed() {
		res.Outcome = dto.OutcomeApplied
		return
	}

	for _, it := range res.Items {
		if it.Outcome != dto.OutcomeRejected {
			res.Outcome = dto.OutcomeUnchanged
			return
		}
	}

	res.Outcome = dto.OutcomeRejected
	if len(res.Items) > 0 {
		res.Kind = res.Items[0].Kind
	}
}

func (u *UseCase) record(res *dto.Result, start time.Time) {
	for _, it := range res.Items {
		u.metrics.RecordItem(res.Operation, string(it.Outcome))
		if it.Kind != "" {
			u.metrics.RecordRejection(res.Operation, string(it.Kind))
		}
	}
	u.metrics.RecordOperation(res.Operation, string(res.Outcome), time.Since(start).Seconds())
}

func rejectedItem(input string, err error) dto.ItemResult {
	return dto.ItemResult{
		Input:   input,
		Outcome: dto.OutcomeRejected,
		Kind:    suberrors.KindOf(err),
		Message: err.Error(),
	}
}
