package kafka

import (
	"context"
	"strconv"

	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/consts"
	"github.com/Conte777/SpawnFeed/subscription-service/internal/domain/subscription/dto"
)

type eventSender interface {
	SendToTopic(ctx context.Context, topic string, key string, event any) error
}

// ProducerAdapter publishes subscription events keyed by user id so that
// every event of one user keeps its order.
type ProducerAdapter struct {
	producer eventSender
}

func NewProducerAdapter(producer *KafkaProducer) *ProducerAdapter {
	return &ProducerAdapter{producer: producer}
}

func (a *ProducerAdapter) PublishChanged(ctx context.Context, event *dto.ChangedEvent) error {
	return a.producer.SendToTopic(ctx, consts.TopicSubscriptionChanged, strconv.FormatInt(event.UserID, 10), event)
}

func (a *ProducerAdapter) PublishResult(ctx context.Context, event *dto.ResultEvent) error {
	return a.producer.SendToTopic(ctx, consts.TopicSubscriptionResults, strconv.FormatInt(event.UserID, 10), event)
}
