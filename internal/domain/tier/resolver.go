package tier

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SupporterDirectory answers whether a user currently holds the supporter role
type SupporterDirectory interface {
	IsSupporter(ctx context.Context, userID int64) (bool, error)
}

// RedisDirectory reads supporters from a Redis set kept up to date by the
// role synchronisation job.
type RedisDirectory struct {
	client *redis.Client
	key    string
}

func NewRedisDirectory(client *redis.Client, key string) *RedisDirectory {
	return &RedisDirectory{client: client, key: key}
}

func (d *RedisDirectory) IsSupporter(ctx context.Context, userID int64) (bool, error) {
	return d.client.SIsMember(ctx, d.key, userID).Result()
}

// Resolver classifies users on every request; tiers are never cached.
type Resolver struct {
	ownerID    int64
	moderators map[int64]struct{}
	supporters SupporterDirectory
	logger     zerolog.Logger
}

func NewResolver(ownerID int64, moderatorIDs []int64, supporters SupporterDirectory, logger zerolog.Logger) *Resolver {
	moderators := make(map[int64]struct{}, len(moderatorIDs))
	for _, id := range moderatorIDs {
		moderators[id] = struct{}{}
	}

	return &Resolver{
		ownerID:    ownerID,
		moderators: moderators,
		supporters: supporters,
		logger:     logger,
	}
}

// Classify returns the user's tier. A directory failure degrades to Standard.
func (r *Resolver) Classify(ctx context.Context, userID int64) Tier {
	if r.ownerID != 0 && userID == r.ownerID {
		return Administrator
	}

	if _, ok := r.moderators[userID]; ok {
		return Moderator
	}

	if r.supporters == nil {
		return Standard
	}

	ok, err := r.supporters.IsSupporter(ctx, userID)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Int64("user_id", userID).
			Msg("failed to look up supporter role, treating user as standard")
		return Standard
	}
	if ok {
		return Supporter
	}

	return Standard
}
