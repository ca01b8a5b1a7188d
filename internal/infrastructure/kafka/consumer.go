package kafka

import (
	"context"
	"errors"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

type KafkaConsumer struct {
	consumerGroup sarama.ConsumerGroup
	logger        zerolog.Logger
	handler       sarama.ConsumerGroupHandler
	topics        []string
	groupID       string
}

func NewKafkaConsumer(
	brokers []string,
	groupID string,
	topics []string,
	handler sarama.ConsumerGroupHandler,
	logger zerolog.Logger,
) (*KafkaConsumer, error) {

	config := sarama.NewConfig()
	config.Version = sarama.V3_6_0_0
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.AutoCommit.Enable = true
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRange()}

	consumerGroup, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		logger.Error().
			Err(err).
			Str("group_id", groupID).
			Msg("failed to create Kafka consumer group")
		return nil, err
	}

	logger.Info().
		Str("group_id", groupID).
		Strs("topics", topics).
		Msg("Kafka consumer group successfully initialized")

	return &KafkaConsumer{
		consumerGroup: consumerGroup,
		logger:        logger,
		handler:       handler,
		topics:        topics,
		groupID:       groupID,
	}, nil
}

// Start consumes in a background goroutine until ctx is cancelled
func (c *KafkaConsumer) Start(ctx context.Context) {
	go func() {
		for {
			if ctx.Err() != nil {
				c.logger.Info().Msg("consumer context canceled, stopping consumer group")
				return
			}

			if err := c.consumerGroup.Consume(ctx, c.topics, c.handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.logger.Error().Err(err).Msg("error from consumer group")
			}
		}
	}()

	go func() {
		for err := range c.consumerGroup.Errors() {
			c.logger.Error().Err(err).Str("group_id", c.groupID).Msg("consumer group error")
		}
	}()

	c.logger.Info().
		Strs("topics", c.topics).
		Msg("Kafka consumer group started")
}

func (c *KafkaConsumer) Close() error {
	if c.consumerGroup == nil {
		c.logger.Info().Msg("Kafka consumer group is already closed or not initialized")
		return nil
	}

	if err := c.consumerGroup.Close(); err != nil {
		c.logger.Error().Err(err).Msg("failed to close Kafka consumer group")
		return err
	}

	c.logger.Info().Msg("Kafka consumer group successfully closed")
	return nil
}
