// Package shop provides tenant data the engine reads per request: the
// shop itself and its configured sales agent persona.
package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound indicates the shop or its agent does not exist.
var ErrNotFound = errors.New("shop not found")

// Shop is a tenant storefront.
type Shop struct {
	ID        uuid.UUID
	Name      string
	Currency  string
	CreatedAt time.Time
}

// Persona is the configured identity of a shop's sales agent: who it
// claims to be, how it speaks and how it opens a conversation.
type Persona struct {
	Name           string
	Title          string
	Tone           string
	WelcomeMessage string
}

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads shops and agent personas from PostgreSQL.
type Store struct {
	db     DB
	logger *slog.Logger
}

// NewStore creates a shop store. logger may be nil.
func NewStore(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Get returns the shop by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Shop, error) {
	var sh Shop
	err := s.db.QueryRow(ctx, `
		SELECT id, name, currency, created_at
		FROM shops WHERE id = $1`, id).
		Scan(&sh.ID, &sh.Name, &sh.Currency, &sh.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting shop %s: %w", id, err)
	}
	return &sh, nil
}

// GetPersona returns the shop's agent persona.
func (s *Store) GetPersona(ctx context.Context, shopID uuid.UUID) (*Persona, error) {
	var p Persona
	err := s.db.QueryRow(ctx, `
		SELECT name, title, tone, welcome_message
		FROM agents WHERE shop_id = $1`, shopID).
		Scan(&p.Name, &p.Title, &p.Tone, &p.WelcomeMessage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: agent for shop %s", ErrNotFound, shopID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting persona for shop %s: %w", shopID, err)
	}
	return &p, nil
}
