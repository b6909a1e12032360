package consumer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/sessiongate/internal/delivery/kafka"
	"github.com/vogiaan1904/sessiongate/internal/service"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
)

var topics = []string{kafka.TopicMeetingParticipantJoined, kafka.TopicMeetingParticipantLeft}

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 500 * time.Millisecond
)

// Consumer feeds meeting provider participant events into the attendance
// service.
type Consumer struct {
	consGr  sarama.ConsumerGroup
	attnSvc service.AttendanceService
	l       logger.Logger
	wg      sync.WaitGroup

	maxAttempts  int
	retryBackoff time.Duration
}

func NewConsumer(
	consGr sarama.ConsumerGroup,
	attnSvc service.AttendanceService,
	l logger.Logger,
) *Consumer {
	return &Consumer{
		consGr:  consGr,
		attnSvc: attnSvc,
		l:       l,

		maxAttempts:  defaultMaxAttempts,
		retryBackoff: defaultRetryBackoff,
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	switch msg.Topic {
	case kafka.TopicMeetingParticipantJoined:
		return c.HandleParticipantJoined(ctx, msg)
	case kafka.TopicMeetingParticipantLeft:
		return c.HandleParticipantLeft(ctx, msg)
	default:
		c.l.Warnf(ctx, "delivery.kafka.consumer.processMessage: unknown topic %s", msg.Topic)
		return nil
	}
}

// Start consumes in the background until ctx is cancelled. A claim that
// gives up on a message ends the group session; the next Consume resumes
// from the last committed offset.
func (c *Consumer) Start(ctx context.Context) error {
	c.wg.Go(func() {
		for {
			if err := c.consGr.Consume(ctx, topics, c); err != nil {
				c.l.Errorf(ctx, "delivery.kafka.consumer.Start: %v", err)
			}

			if ctx.Err() != nil {
				c.l.Infof(ctx, "delivery.kafka.consumer.Start: %v", ctx.Err())
				return
			}

			select {
			case <-time.After(c.retryBackoff):
			case <-ctx.Done():
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

func (c *Consumer) ConsumeClaim(ss sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			if err := c.handleWithRetry(ss.Context(), message); err != nil {
				c.l.Errorf(ss.Context(), "delivery.kafka.consumer.ConsumeClaim: topic %s partition %d offset %d: %v",
					message.Topic, message.Partition, message.Offset, err)
				return err
			}

			ss.MarkMessage(message, "")

		case <-ss.Context().Done():
			return nil
		}
	}
}

// handleWithRetry returns nil once the message is handled or can be dropped,
// and the last error when every attempt failed transiently.
func (c *Consumer) handleWithRetry(ctx context.Context, message *sarama.ConsumerMessage) error {
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = c.processMessage(ctx, message)
		if err == nil {
			return nil
		}
		if errors.Is(err, errPermanent) {
			c.l.Warnf(ctx, "delivery.kafka.consumer.handleWithRetry: dropping offset %d: %v", message.Offset, err)
			return nil
		}

		if attempt == c.maxAttempts {
			break
		}
		c.l.Warnf(ctx, "delivery.kafka.consumer.handleWithRetry: attempt %d for offset %d: %v", attempt, message.Offset, err)

		select {
		case <-time.After(c.retryBackoff * time.Duration(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
