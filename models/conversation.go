package models

import (
	"time"

	"github.com/google/uuid"
)

// TurnRole identifies who produced a conversation turn
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// Turn is a single message in a conversation thread.
// Turns are append-only: once stored they are never edited or removed, so
// replaying a thread reproduces the exact prompt context of any past reply.
type Turn struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ThreadID  string    `json:"thread_id" db:"thread_id"`
	Role      TurnRole  `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewTurn creates a turn for the given thread
func NewTurn(threadID string, role TurnRole, content string) *Turn {
	return &Turn{
		ID:        uuid.New(),
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// IndexedDocument pairs a catalog record with its embeddable summary and
// vector. One per record; the vector dimension must match the search index.
type IndexedDocument struct {
	ItemID    string        `json:"item_id"`
	Summary   string        `json:"summary"`
	Embedding []float32     `json:"embedding"`
	Record    CatalogRecord `json:"record"`
	Score     float64       `json:"score,omitempty"` // Populated on search results only
}
