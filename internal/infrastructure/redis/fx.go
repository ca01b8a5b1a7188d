package redis

import (
	"context"
	"time"

	"github.com/Conte777/SpawnFeed/subscription-service/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"redis",
	fx.Provide(NewRedis),
)

func NewRedis(lc fx.Lifecycle, cfg *config.RedisConfig, log zerolog.Logger) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewClient(ctx, cfg.URL)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to redis")
		return nil, err
	}

	log.Info().Msg("redis connected")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("closing redis connection...")
			return client.Close()
		},
	})

	return client, nil
}
