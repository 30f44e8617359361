package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	kafka "github.com/vogiaan1904/eventhub-seatsync/internal/delivery/kafka"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
)

type Producer interface {
	PublishEventStatusChanged(ctx context.Context, event kafka.EventStatusChangedEvent) error
	PublishEventSeatsChanged(ctx context.Context, event kafka.EventSeatsChangedEvent) error
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

func (p *implProducer) PublishEventStatusChanged(ctx context.Context, event kafka.EventStatusChangedEvent) error {
	event.Timestamp = time.Now()
	if err := p.send(ctx, kafka.TopicEventStatusChanged, event.EventID, event); err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishEventStatusChanged: %v", err)
		return err
	}
	return nil
}

func (p *implProducer) PublishEventSeatsChanged(ctx context.Context, event kafka.EventSeatsChangedEvent) error {
	event.Timestamp = time.Now()
	if err := p.send(ctx, kafka.TopicEventSeatsChanged, event.EventID, event); err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishEventSeatsChanged: %v", err)
		return err
	}
	return nil
}

func (p *implProducer) send(ctx context.Context, topic string, eventID int64, payload any) error {
	val, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(eventID, 10)), // Partition by event_id for ordering
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	partition, offset, err := p.prod.SendMessage(msg)
	if err != nil {
		return err
	}

	p.l.Debugf(ctx, "Published %s for event %d (partition %d, offset %d)", topic, eventID, partition, offset)
	return nil
}

func (p *implProducer) Close() error {
	return p.prod.Close()
}

type nopProducer struct{}

// NewNopProducer is used when Kafka is disabled.
func NewNopProducer() Producer {
	return nopProducer{}
}

func (nopProducer) PublishEventStatusChanged(context.Context, kafka.EventStatusChangedEvent) error {
	return nil
}

func (nopProducer) PublishEventSeatsChanged(context.Context, kafka.EventSeatsChangedEvent) error {
	return nil
}

func (nopProducer) Close() error { return nil }
