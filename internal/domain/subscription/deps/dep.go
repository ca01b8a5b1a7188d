package deps

import (
	"context"
	"time"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/catalog"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/dto"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/entities"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/tier"
)

// SubscriptionRepository persists whole aggregates. Save is the only
// durability boundary.
type SubscriptionRepository interface {
	Exists(ctx context.Context, userID int64) (bool, error)
	// Get returns a default enabled aggregate when the user has none
	Get(ctx context.Context, userID int64) (*entities.Subscription, error)
	Save(ctx context.Context, sub *entities.Subscription) error
}

type Catalog interface {
	Resolve(nameOrID string) (catalog.Species, bool)
	DisplayName(id int) string
	All() []catalog.Species
	KnownCities() []string
	Canonical(city string) (string, bool)
}

// PendingBulkStore parks bulk operations awaiting confirmation
type PendingBulkStore interface {
	Put(ctx context.Context, op *entities.PendingBulk, ttl time.Duration) error
	// Take atomically removes and returns the operation.
	// Missing or expired tokens yield ErrConfirmationNotFound.
	Take(ctx context.Context, userID int64, token string) (*entities.PendingBulk, error)
}

type ChangePublisher interface {
	PublishChanged(ctx context.Context, event *dto.ChangedEvent) error
}

type ResultPublisher interface {
	PublishResult(ctx context.Context, event *dto.ResultEvent) error
}

// Confirmer asks the user a yes/no question and waits for the answer
type Confirmer interface {
	Ask(ctx context.Context, userID int64, prompt string) (bool, error)
}

type TierResolver interface {
	Classify(ctx context.Context, userID int64) tier.Tier
}

type Metrics interface {
	RecordOperation(operation, outcome string, duration float64)
	RecordItem(operation, outcome string)
	RecordRejection(operation, kind string)
	RecordStorageFailure()
	RecordBulkTransition(kind, state string)
}

type CommandMetrics interface {
	RecordCommand(commandType, status string)
}

type SubscriptionUseCase interface {
	AddCreatureFilters(ctx context.Context, req dto.CreatureFilterRequest, t tier.Tier) (*dto.Result, error)
	RemoveCreatureFilters(ctx context.Context, userID int64, species string) (*dto.Result, error)
	AddRaidFilters(ctx context.Context, req dto.RaidFilterRequest, t tier.Tier) (*dto.Result, error)
	RemoveRaidFilters(ctx context.Context, req dto.RaidFilterRequest) (*dto.Result, error)

	RequestBulk(ctx context.Context, req dto.BulkRequest, t tier.Tier) (*dto.BulkTicket, error)
	ConfirmBulk(ctx context.Context, userID int64, token string, confirm bool) (*dto.Result, error)
	RunBulk(ctx context.Context, req dto.BulkRequest, t tier.Tier, confirmer Confirmer) (*dto.Result, error)

	SetEnabled(ctx context.Context, userID int64, enabled bool) (*dto.Result, error)
	GetSubscriptions(ctx context.Context, viewerID, targetID int64) (*dto.SubscriptionsView, error)
}
