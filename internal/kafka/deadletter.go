package kafka

import (
	"context"

	"go.uber.org/zap"
)

// DeadLetter forwards an unprocessable payload to the given dead-letter
// topic. Emission is best-effort: a publish failure is logged and the
// payload is dropped, never blocking the consumer loop.
func DeadLetter(ctx context.Context, p Producer, topic string, payload []byte, l *zap.Logger) {
	if topic == "" {
		return
	}
	if err := p.Produce(ctx, topic, "", payload); err != nil {
		l.Error("Failed to dead-letter message",
			zap.String("dead_letter_topic", topic),
			zap.Error(err))
		return
	}
	l.Warn("Message sent to dead-letter topic", zap.String("dead_letter_topic", topic))
}
