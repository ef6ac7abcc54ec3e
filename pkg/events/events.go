// Package events publishes domain events to message brokers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event subjects.
const (
	SubjectAdmissionFinalized = "admission.finalized"
	SubjectTestSubmitted      = "test.submitted"
)

// Envelope wraps every published payload.
type Envelope struct {
	ID            string          `json:"id"`
	Subject       string          `json:"subject"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

type correlationKey struct{}

// WithCorrelationID binds the request correlation identifier to ctx so that
// envelopes published under it carry the same identifier.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the identifier bound by WithCorrelationID.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Publisher sends events to a broker.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
	Close() error
}

// Encode wraps payload into an envelope and returns its JSON form.
func Encode(ctx context.Context, subject string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", subject, err)
	}
	return json.Marshal(Envelope{
		ID:            uuid.NewString(),
		Subject:       subject,
		CorrelationID: CorrelationID(ctx),
		OccurredAt:    time.Now().UTC(),
		Payload:       raw,
	})
}

func qualify(prefix, subject string) string {
	prefix = strings.Trim(prefix, ". ")
	if prefix == "" {
		return subject
	}
	return prefix + "." + subject
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, interface{}) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

// Multi fans out to several publishers and joins their errors.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, subject string, payload interface{}) error {
	var errs []error
	for _, publisher := range m {
		if err := publisher.Publish(ctx, subject, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Publisher.
func (m Multi) Close() error {
	var errs []error
	for _, publisher := range m {
		if err := publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
