package query

import (
	"time"

	"github.com/google/uuid"

	"github.com/praxislabs/cqrs/core/execution"
)

// Envelope wraps a query payload with per-dispatch metadata.
// The bus builds one for every handler invocation and threads it through
// the context; handlers and middleware read it with EnvelopeFromContext.
// Cache hits return before a handler runs, so no envelope exists for them.
type Envelope struct {
	ID            string
	Name          string
	Payload       any
	CorrelationID string
	Initiator     string
	Metadata      map[string]string
	CreatedAt     time.Time
}

// Identifiable lets a query supply its own request ID. Without it the bus
// generates a UUID per dispatch.
type Identifiable interface {
	RequestID() string
}

// Attributed lets a query carry free-form metadata into its envelope.
type Attributed interface {
	RequestMetadata() map[string]string
}

// newEnvelope builds the dispatch envelope for a query, filling in
// generated defaults where the query and execution context are silent.
func newEnvelope(payload any, name string, ec execution.Context) Envelope {
	env := Envelope{
		ID:            uuid.New().String(),
		Name:          name,
		Payload:       payload,
		CorrelationID: ec.CorrelationID,
		Initiator:     ec.UserID,
		CreatedAt:     time.Now(),
	}

	if ident, ok := payload.(Identifiable); ok {
		if id := ident.RequestID(); id != "" {
			env.ID = id
		}
	}
	if attr, ok := payload.(Attributed); ok {
		env.Metadata = attr.RequestMetadata()
	}

	return env
}
