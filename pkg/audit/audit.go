package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is a single append-only audit record for an administrative
// authorization mutation. Entries are created once and never mutated or
// deleted by this library.
type Entry struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenant_id,omitempty"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	Target    string         `json:"target"`
	Details   map[string]any `json:"details,omitempty"`
	Success   bool           `json:"success"`
	CreatedAt time.Time      `json:"created_at"`
}

// Validate checks the entry has the required fields.
func (e *Entry) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrInvalidEntry)
	}
	if e.ActorID == "" {
		return fmt.Errorf("%w: actor_id is required", ErrInvalidEntry)
	}
	return nil
}

// Sink receives audit entries. Implementations must be safe for concurrent
// use. A sink failure never rolls back the mutation being audited; callers
// surface the error as a non-fatal warning instead.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// NewEntry builds an entry with a fresh ID and timestamp.
func NewEntry(actorID, action, target string) Entry {
	return Entry{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		Action:    action,
		Target:    target,
		Success:   true,
		CreatedAt: time.Now(),
	}
}
