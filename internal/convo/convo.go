// Package convo manages conversations and their append-only turn
// sequence. The turn count before the current message decides
// first-message framing; the full sequence becomes completion history.
package convo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNotFound indicates the conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// Conversation is one shopper's dialogue with a shop's agent.
type Conversation struct {
	ID        uuid.UUID
	ShopID    uuid.UUID
	VisitorID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Turn is one message in a conversation, append-only and ordered.
type Turn struct {
	ID             int64
	ConversationID uuid.UUID
	Role           string
	Content        string
	CreatedAt      time.Time
}

// Store persists conversations and turns in PostgreSQL.
// Store is safe for concurrent use; callers must still serialize turns
// per conversation (the order machine is not idempotent).
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a conversation store. logger may be nil.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Create starts a new conversation for a shop.
func (s *Store) Create(ctx context.Context, shopID uuid.UUID, visitorID string) (*Conversation, error) {
	c := &Conversation{
		ID:        uuid.New(),
		ShopID:    shopID,
		VisitorID: visitorID,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO conversations (id, shop_id, visitor_id, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING created_at, updated_at`,
		c.ID, c.ShopID, c.VisitorID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	s.logger.Debug("created conversation", "id", c.ID, "shop_id", shopID)
	return c, nil
}

// Get returns a conversation by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var c Conversation
	err := s.pool.QueryRow(ctx, `
		SELECT id, shop_id, visitor_id, created_at, updated_at
		FROM conversations WHERE id = $1`, id).
		Scan(&c.ID, &c.ShopID, &c.VisitorID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting conversation %s: %w", id, err)
	}
	return &c, nil
}

// Turns returns the conversation's turns in order, capped at limit.
func (s *Store) Turns(ctx context.Context, conversationID uuid.UUID, limit int32) ([]Turn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM conversation_turns
		WHERE conversation_id = $1
		ORDER BY id ASC
		LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("getting turns for conversation %s: %w", conversationID, err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	s.logger.Debug("retrieved turns", "conversation_id", conversationID, "count", len(turns))
	return turns, nil
}

// AppendTurns appends turns atomically and refreshes the conversation's
// updated_at. Either all turns land or none do.
func (s *Store) AppendTurns(ctx context.Context, conversationID uuid.UUID, turns []Turn) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", err)
		}
	}()

	for i, t := range turns {
		if t.Role != RoleUser && t.Role != RoleAssistant {
			return fmt.Errorf("turn %d has invalid role %q", i, t.Role)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO conversation_turns (conversation_id, role, content, created_at)
			VALUES ($1, $2, $3, now())`,
			conversationID, t.Role, t.Content); err != nil {
			return fmt.Errorf("inserting turn %d: %w", i, err)
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE conversations SET updated_at = now() WHERE id = $1`, conversationID); err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing turns: %w", err)
	}

	s.logger.Debug("appended turns", "conversation_id", conversationID, "count", len(turns))
	return nil
}
