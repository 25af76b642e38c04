package postgres

import (
	"context"
	"database/sql"

	"github.com/upb/catalog-assistant/models"
	"github.com/upb/catalog-assistant/repositories"
	"github.com/upb/catalog-assistant/services"
	"go.uber.org/zap"
)

// ConversationRepository implements repositories.ConversationRepository on PostgreSQL
type ConversationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB, logger *zap.Logger) repositories.ConversationRepository {
	return &ConversationRepository{
		db:     db,
		logger: logger,
	}
}

const insertTurnQuery = `
	INSERT INTO conversation_turns (id, thread_id, role, content, created_at)
	VALUES ($1, $2, $3, $4, $5)
`

// Append stores a single turn at the end of its thread
func (r *ConversationRepository) Append(ctx context.Context, turn *models.Turn) error {
	_, err := r.db.ExecContext(ctx, insertTurnQuery,
		turn.ID, turn.ThreadID, turn.Role, turn.Content, turn.CreatedAt)
	if err != nil {
		return services.WrapStorage("failed to append conversation turn", err)
	}

	r.logger.Debug("turn appended",
		zap.String("thread_id", turn.ThreadID),
		zap.String("role", string(turn.Role)))
	return nil
}

// AppendExchange stores a user turn and the assistant reply in one
// transaction so a failure never leaves a half-appended exchange.
func (r *ConversationRepository) AppendExchange(ctx context.Context, userTurn, assistantTurn *models.Turn) error {
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, turn := range []*models.Turn{userTurn, assistantTurn} {
			if _, err := tx.ExecContext(ctx, insertTurnQuery,
				turn.ID, turn.ThreadID, turn.Role, turn.Content, turn.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return services.WrapStorage("failed to append conversation exchange", err)
	}

	r.logger.Debug("exchange appended", zap.String("thread_id", userTurn.ThreadID))
	return nil
}

// Load returns the ordered turn sequence for a thread. An unknown thread ID
// yields an empty sequence; it models a new conversation, not an error.
func (r *ConversationRepository) Load(ctx context.Context, threadID string) ([]*models.Turn, error) {
	query := `
		SELECT id, thread_id, role, content, created_at
		FROM conversation_turns
		WHERE thread_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, services.WrapStorage("failed to load conversation", err)
	}
	defer rows.Close()

	turns := []*models.Turn{}
	for rows.Next() {
		turn := &models.Turn{}
		if err := rows.Scan(&turn.ID, &turn.ThreadID, &turn.Role, &turn.Content, &turn.CreatedAt); err != nil {
			return nil, services.WrapStorage("failed to scan conversation turn", err)
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, services.WrapStorage("error iterating conversation turns", err)
	}

	return turns, nil
}
