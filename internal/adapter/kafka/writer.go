package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/storm-safety-advisor/internal/config"
	"github.com/couchcryptid/storm-safety-advisor/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the feed uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// AssessmentWriter publishes applied assessments to a Kafka topic.
// It implements session.Feed.
type AssessmentWriter struct {
	writer     messageWriter
	logger     *slog.Logger
	attempts   int
	backoff    time.Duration
	maxBackoff time.Duration
}

const (
	defaultPublishAttempts = 3
	defaultBackoff         = 200 * time.Millisecond
	defaultMaxBackoff      = 5 * time.Second
)

// NewAssessmentWriter creates a producer for the configured assessment topic.
func NewAssessmentWriter(cfg *config.Config, logger *slog.Logger) *AssessmentWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAssessmentTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		WriteTimeout: 5 * time.Second,
	}
	return &AssessmentWriter{
		writer:     w,
		logger:     logger,
		attempts:   defaultPublishAttempts,
		backoff:    defaultBackoff,
		maxBackoff: defaultMaxBackoff,
	}
}

// Publish writes one assessment keyed by session ID, so a session's
// assessments stay ordered within a partition. Failed writes are retried
// with exponential backoff until the attempts run out or ctx is done.
func (w *AssessmentWriter) Publish(ctx context.Context, sessionID string, req domain.RefreshRequest, a domain.SafetyAssessment) error {
	msg, err := serializeToMessage(sessionID, req, a)
	if err != nil {
		return err
	}

	backoff := w.backoff
	for attempt := 1; ; attempt++ {
		err = w.writer.WriteMessages(ctx, msg)
		if err == nil {
			break
		}
		if attempt >= w.attempts {
			return fmt.Errorf("publish assessment: %w", err)
		}
		w.logger.Warn("assessment publish failed, retrying", "request_id", req.ID, "attempt", attempt, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return fmt.Errorf("publish assessment: %w", ctx.Err())
		}
		backoff = retry.NextBackoff(backoff, w.maxBackoff)
	}

	w.logger.Debug("assessment published", "request_id", req.ID, "severity", a.DominantSeverity.String())
	return nil
}

func (w *AssessmentWriter) Close() error {
	return w.writer.Close()
}

// assessmentEnvelope is the JSON value of a feed message.
type assessmentEnvelope struct {
	SessionID  string                  `json:"session_id"`
	Request    domain.RefreshRequest   `json:"request"`
	Assessment domain.SafetyAssessment `json:"assessment"`
}

// serializeToMessage marshals an assessment into a Kafka message.
func serializeToMessage(sessionID string, req domain.RefreshRequest, a domain.SafetyAssessment) (kafkago.Message, error) {
	data, err := json.Marshal(assessmentEnvelope{SessionID: sessionID, Request: req, Assessment: a})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize assessment: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(sessionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "origin", Value: []byte(req.Origin)},
			{Key: "severity", Value: []byte(a.DominantSeverity.String())},
			{Key: "assessed_at", Value: []byte(a.AssessedAt.Format(time.RFC3339))},
		},
	}, nil
}
