package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	kafka "github.com/vogiaan1904/sessiongate/internal/delivery/kafka"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
)

type Producer interface {
	PublishSessionStatus(ctx context.Context, topic string, event kafka.SessionStatusEvent) error
	PublishAttendance(ctx context.Context, topic string, event kafka.AttendanceEvent) error
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

func (p *implProducer) PublishSessionStatus(ctx context.Context, topic string, event kafka.SessionStatusEvent) error {
	event.Timestamp = time.Now()
	// Partition by session so status events stay ordered per session
	return p.send(ctx, topic, event.SessionType+":"+event.SessionID, event)
}

func (p *implProducer) PublishAttendance(ctx context.Context, topic string, event kafka.AttendanceEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, topic, event.SessionType+":"+event.SessionID, event)
}

func (p *implProducer) send(ctx context.Context, topic, key string, event any) error {
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.send: %v", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	if _, _, err := p.prod.SendMessage(msg); err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.send: topic=%s: %v", topic, err)
		return err
	}

	return nil
}

func (p *implProducer) Close() error {
	return p.prod.Close()
}

type noopProducer struct{}

// NewNoopProducer is used when Kafka is disabled.
func NewNoopProducer() Producer {
	return noopProducer{}
}

func (noopProducer) PublishSessionStatus(context.Context, string, kafka.SessionStatusEvent) error {
	return nil
}

func (noopProducer) PublishAttendance(context.Context, string, kafka.AttendanceEvent) error {
	return nil
}

func (noopProducer) Close() error { return nil }
