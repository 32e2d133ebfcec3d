package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store persists shop knowledge documents in PostgreSQL.
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     DB
	logger *slog.Logger
}

// NewStore creates a document store. logger may be nil.
func NewStore(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// ListActive returns the shop's active documents, oldest first so
// retrieval ranking stays stable across calls.
func (s *Store) ListActive(ctx context.Context, shopID uuid.UUID) ([]Document, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, shop_id, title, content, source_url, active, created_at, updated_at
		FROM knowledge_documents
		WHERE shop_id = $1 AND active
		ORDER BY created_at ASC`, shopID)
	if err != nil {
		return nil, fmt.Errorf("listing documents for shop %s: %w", shopID, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.ShopID, &d.Title, &d.Content, &d.SourceURL,
			&d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	s.logger.Debug("listed documents", "shop_id", shopID, "count", len(docs))
	return docs, nil
}

// Upsert inserts a document or refreshes an existing one keyed by
// (shop_id, source_url). Used by the website ingester, which revisits
// the same pages on every run.
func (s *Store) Upsert(ctx context.Context, doc Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO knowledge_documents (id, shop_id, title, content, source_url, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, now(), now())
		ON CONFLICT (shop_id, source_url) DO UPDATE
		SET title = EXCLUDED.title, content = EXCLUDED.content, active = TRUE, updated_at = now()`,
		doc.ID, doc.ShopID, doc.Title, doc.Content, doc.SourceURL)
	if err != nil {
		return fmt.Errorf("upserting document %q: %w", doc.Title, err)
	}

	s.logger.Debug("upserted document", "shop_id", doc.ShopID, "title", doc.Title)
	return nil
}
