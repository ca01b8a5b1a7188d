package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/entities"
	suberrors "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bulk:pending:"

// PendingStore keeps bulk operations awaiting confirmation. Expiry is
// handled by Redis TTL, so a late answer simply finds nothing.
type PendingStore struct {
	client *redis.Client
}

func NewPendingStore(client *redis.Client) *PendingStore {
	return &PendingStore{client: client}
}

func key(userID int64, token string) string {
	return fmt.Sprintf("%s%d:%s", keyPrefix, userID, token)
}

func (s *PendingStore) Put(ctx context.Context, op *entities.PendingBulk, ttl time.Duration) error {
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal pending bulk: %w", err)
	}

	if err := s.client.Set(ctx, key(op.UserID, op.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", suberrors.ErrStorageFailure, err)
	}
	return nil
}

// Take removes the operation atomically so it can be confirmed at most once
func (s *PendingStore) Take(ctx context.Context, userID int64, token string) (*entities.PendingBulk, error) {
	data, err := s.client.GetDel(ctx, key(userID, token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, suberrors.ErrConfirmationNotFound
		}
		return nil, fmt.Errorf("%w: %v", suberrors.ErrStorageFailure, err)
	}

	var op entities.PendingBulk
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("unmarshal pending bulk: %w", err)
	}
	return &op, nil
}
