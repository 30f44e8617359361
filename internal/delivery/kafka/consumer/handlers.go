package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/eventhub-seatsync/internal/delivery/kafka"
	"github.com/vogiaan1904/eventhub-seatsync/internal/service"
)

var errMalformedMessage = errors.New("malformed registration message")

func (c *Consumer) HandleRegistrationConfirmed(ctx context.Context, message *sarama.ConsumerMessage) error {
	return c.adjust(ctx, message, -1)
}

func (c *Consumer) HandleRegistrationCancelled(ctx context.Context, message *sarama.ConsumerMessage) error {
	return c.adjust(ctx, message, 1)
}

func (c *Consumer) adjust(ctx context.Context, message *sarama.ConsumerMessage, delta int) error {
	var e kafka.RegistrationEvent
	if err := json.Unmarshal(message.Value, &e); err != nil || e.EventID <= 0 {
		c.l.Warnf(ctx, "delivery.kafka.consumer.adjust: %s: %v", message.Topic, errMalformedMessage)
		return errMalformedMessage
	}

	if _, err := c.svc.AdjustSeats(ctx, service.AdjustSeatsInput{
		EventID: e.EventID,
		Delta:   delta,
		Source:  e.RegistrationID,
	}); err != nil {
		c.l.Warnf(ctx, "delivery.kafka.consumer.adjust: registration %s: %v", e.RegistrationID, err)
		return err
	}

	return nil
}

// isPermanent reports errors that a redelivery cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, errMalformedMessage) ||
		errors.Is(err, service.ErrEventNotFound) ||
		errors.Is(err, service.ErrEventFull)
}
