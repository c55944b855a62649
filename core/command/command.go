package command

import (
	"time"

	"github.com/google/uuid"

	"github.com/praxislabs/cqrs/core/execution"
)

// Envelope wraps a command payload with per-dispatch metadata.
// The bus builds one for every Send and threads it through the pipeline
// via the context; handlers and middleware read it with EnvelopeFromContext.
type Envelope struct {
	ID            string
	Name          string
	Payload       any
	CorrelationID string
	Initiator     string
	Metadata      map[string]string
	CreatedAt     time.Time
}

// Identifiable lets a command supply its own request ID. Without it the bus
// generates a UUID per dispatch.
type Identifiable interface {
	RequestID() string
}

// Attributed lets a command carry free-form metadata into its envelope.
type Attributed interface {
	RequestMetadata() map[string]string
}

// newEnvelope builds the dispatch envelope for a command, filling in
// generated defaults where the command and execution context are silent.
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
