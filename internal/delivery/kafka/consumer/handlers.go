package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/sessiongate/internal/delivery/kafka"
	"github.com/vogiaan1904/sessiongate/internal/models"
	"github.com/vogiaan1904/sessiongate/internal/service"
)

func (c *Consumer) HandleParticipantJoined(ctx context.Context, message *sarama.ConsumerMessage) error {
	in, err := decodeParticipant(message)
	if err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleParticipantJoined: %v", err)
		return err
	}

	ctx = c.l.With(ctx, "session_id", in.SessionID, "user_id", in.UserID)
	return c.markPermanent(ctx, "HandleParticipantJoined", c.attnSvc.HandleParticipantJoined(ctx, in))
}

func (c *Consumer) HandleParticipantLeft(ctx context.Context, message *sarama.ConsumerMessage) error {
	in, err := decodeParticipant(message)
	if err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleParticipantLeft: %v", err)
		return err
	}

	ctx = c.l.With(ctx, "session_id", in.SessionID, "user_id", in.UserID)
	return c.markPermanent(ctx, "HandleParticipantLeft", c.attnSvc.HandleParticipantLeft(ctx, in))
}

func decodeParticipant(message *sarama.ConsumerMessage) (service.ParticipantInput, error) {
	var e kafka.ParticipantEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		return service.ParticipantInput{}, fmt.Errorf("%w: %w", errPermanent, err)
	}
	if e.SessionID == "" || e.UserID == "" {
		return service.ParticipantInput{}, fmt.Errorf("%w: %w", errPermanent, errMissingIdentity)
	}

	return service.ParticipantInput{
		SessionID: e.SessionID,
		Kind:      models.SessionKind(e.SessionType),
		UserID:    e.UserID,
		Role:      models.Role(e.Role),
		At:        e.OccurredAt,
	}, nil
}

var (
	// errPermanent marks events that can never succeed on redelivery.
	errPermanent       = errors.New("permanent failure")
	errMissingIdentity = errors.New("participant event without session or user id")
)

// markPermanent tags service errors that redelivery cannot fix.
func (c *Consumer) markPermanent(ctx context.Context, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrInvalidSessionKind):
		c.l.Warnf(ctx, "delivery.kafka.consumer.handlers.%s: %v", op, err)
		return fmt.Errorf("%w: %w", errPermanent, err)
	default:
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.%s: %v", op, err)
		return err
	}
}
