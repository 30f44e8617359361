package consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/eventhub-seatsync/internal/delivery/kafka"
	"github.com/vogiaan1904/eventhub-seatsync/internal/service"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
)

const (
	defaultMaxAttempts  = 4
	defaultRetryBackoff = 250 * time.Millisecond
)

type Consumer struct {
	consGr sarama.ConsumerGroup
	svc    service.EventStatusService
	l      logger.Logger
	wg     sync.WaitGroup

	maxAttempts  int
	retryBackoff time.Duration
}

func NewConsumer(
	consGr sarama.ConsumerGroup,
	svc service.EventStatusService,
	l logger.Logger,
) *Consumer {
	return &Consumer{
		consGr:       consGr,
		svc:          svc,
		l:            l,
		maxAttempts:  defaultMaxAttempts,
		retryBackoff: defaultRetryBackoff,
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	switch msg.Topic {
	case kafka.TopicRegistrationConfirmed:
		return c.HandleRegistrationConfirmed(ctx, msg)
	case kafka.TopicRegistrationCancelled:
		return c.HandleRegistrationCancelled(ctx, msg)
	default:
		c.l.Warnf(ctx, "delivery.kafka.consumer.processMessage: unknown topic %s", msg.Topic)
		return nil
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	topics := []string{kafka.TopicRegistrationConfirmed, kafka.TopicRegistrationCancelled}
	c.wg.Go(func() {
		for {
			if err := c.consGr.Consume(ctx, topics, c); err != nil {
				c.l.Errorf(ctx, "delivery.kafka.consumer.Start: %v", err)
			}

			if ctx.Err() != nil {
				c.l.Infof(ctx, "delivery.kafka.consumer.Start: %v", ctx.Err())
				return
			}
		}
	})

	c.wg.Go(func() {
		for err := range c.consGr.Errors() {
			c.l.Errorf(ctx, "delivery.kafka.consumer.Start: %v", err)
		}
	})

	c.l.Infof(ctx, "Consumer is consuming topics: %v", topics)
	return nil
}

func (c *Consumer) Close() error {
	if err := c.consGr.Close(); err != nil {
		return err
	}

	c.wg.Wait()
	return nil
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session started")
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session ended")
	return nil
}

// ConsumeClaim retries transient failures with doubling backoff. A message
// that still fails is left unmarked and the claim ends with the error, so the
// next session resumes from the last committed offset. Permanent failures are
// marked so one bad registration does not stall the partition.
func (c *Consumer) ConsumeClaim(ss sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			if err := c.processWithRetry(ss.Context(), message); err != nil {
				if ss.Context().Err() != nil {
					return nil
				}
				c.l.Errorf(ss.Context(), "delivery.kafka.consumer.ConsumeClaim: topic %s offset %d: %v",
					message.Topic, message.Offset, err)
				return fmt.Errorf("topic %s offset %d: %w", message.Topic, message.Offset, err)
			}

			ss.MarkMessage(message, "")

		case <-ss.Context().Done():
			return nil
		}
	}
}

// processWithRetry returns nil for handled and permanently failed messages.
func (c *Consumer) processWithRetry(ctx context.Context, message *sarama.ConsumerMessage) error {
	backoff := c.retryBackoff
	var err error
	for attempt := 1; ; attempt++ {
		err = c.processMessage(ctx, message)
		if err == nil || isPermanent(err) {
			return nil
		}
		if attempt >= c.maxAttempts {
			return err
		}

		c.l.Warnf(ctx, "delivery.kafka.consumer.processWithRetry: attempt %d/%d: %v", attempt, c.maxAttempts, err)

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		backoff *= 2
	}
}
