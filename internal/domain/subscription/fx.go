package subscription

import (
	"context"

	"github.com/Conte777/SpawnFeed/subscription-service/config"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/catalog"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/consts"
	subhttp "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/delivery/http"
	subkafka "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/delivery/kafka"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/deps"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/repository/postgres"
	subredis "github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/repository/redis"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/usecase/buissines"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/tier"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/infrastructure/http/server"
	kafkaInfra "github.com/Conte777/SpawnFeed/subscription-service/internal/infrastructure/kafka"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/infrastructure/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module(
	"subscription",
	fx.Provide(
		NewRepository,
		NewPendingStore,
		NewChangePublisher,
		NewResultPublisher,
		NewCatalog,
		NewTierResolver,
		NewMetrics,
		NewCommandMetrics,
		NewUseCase,
		subkafka.NewEventHandler,
		subhttp.NewHandler,
	),
	fx.Invoke(
		registerKafkaConsumer,
		registerRoutes,
	),
)

func NewRepository(db *gorm.DB) deps.SubscriptionRepository {
	return postgres.NewRepository(db)
}

func NewPendingStore(client *redis.Client) deps.PendingBulkStore {
	return subredis.NewPendingStore(client)
}

func NewChangePublisher(adapter *kafkaInfra.ProducerAdapter) deps.ChangePublisher {
	return adapter
}

func NewResultPublisher(adapter *kafkaInfra.ProducerAdapter) deps.ResultPublisher {
	return adapter
}

func NewCatalog(c *catalog.Catalog) deps.Catalog {
	return c
}

func NewTierResolver(r *tier.Resolver) deps.TierResolver {
	return r
}

func NewMetrics(m *metrics.Metrics) deps.Metrics {
	return m
}

func NewCommandMetrics(m *metrics.Metrics) deps.CommandMetrics {
	return m
}

func NewUseCase(
	repo deps.SubscriptionRepository,
	cat deps.Catalog,
	pending deps.PendingBulkStore,
	publisher deps.ChangePublisher,
	tiers deps.TierResolver,
	m deps.Metrics,
	cfg *config.BulkConfig,
	logger zerolog.Logger,
) deps.SubscriptionUseCase {
	return buissines.NewUseCase(repo, cat, pending, publisher, tiers, m, cfg.ConfirmTimeout, logger)
}

func registerRoutes(srv *server.Server, handler *subhttp.Handler) {
	handler.Routes(srv.Router)
}

func registerKafkaConsumer(
	lc fx.Lifecycle,
	cfg *config.KafkaConfig,
	handler *subkafka.EventHandler,
	log zerolog.Logger,
) error {
	consumer, err := kafkaInfra.NewKafkaConsumer(
		cfg.Brokers,
		cfg.GroupID,
		consts.ConsumerTopics,
		handler,
		log,
	)
	if err != nil {
		return err
	}

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			consumer.Start(consumerCtx)
			log.Info().Msg("kafka consumer started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("stopping kafka consumer...")
			cancelConsumer()
			return consumer.Close()
		},
	})

	return nil
}
