package tier

import (
	"github.com/Conte777/SpawnFeed/subscription-service/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"tier",
	fx.Provide(NewTierResolver),
)

func NewTierResolver(cfg *config.TiersConfig, client *redis.Client, log zerolog.Logger) *Resolver {
	return NewResolver(
		cfg.OwnerID,
		cfg.ModeratorIDs,
		NewRedisDirectory(client, cfg.SupporterSetKey),
		log.With().Str("component", "tier_resolver").Logger(),
	)
}
