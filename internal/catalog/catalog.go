// Package catalog provides the per-shop product catalog the engine reads
// at request time: typed items, a PostgreSQL-backed store and the fuzzy
// name matching used by tool dispatch.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Item is a sellable catalog entry. Price is an integer amount in the
// shop's currency (XOF and friends have no minor unit).
type Item struct {
	ID          uuid.UUID `json:"id"`
	ShopID      uuid.UUID `json:"shopId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	PurchaseURL string    `json:"purchaseUrl,omitempty"`
	Category    string    `json:"category,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DB is the subset of pgxpool.Pool the store needs.
// Interfaces are defined by the consumer, not the provider.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads catalog items from PostgreSQL.
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     DB
	logger *slog.Logger
}

// NewStore creates a catalog store. logger may be nil.
func NewStore(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// ListActive returns the shop's active items, newest first.
func (s *Store) ListActive(ctx context.Context, shopID uuid.UUID) ([]Item, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, shop_id, name, description, price, image_url, purchase_url, category, active, created_at
		FROM products
		WHERE shop_id = $1 AND active
		ORDER BY created_at DESC`, shopID)
	if err != nil {
		return nil, fmt.Errorf("listing products for shop %s: %w", shopID, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ShopID, &it.Name, &it.Description, &it.Price,
			&it.ImageURL, &it.PurchaseURL, &it.Category, &it.Active, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}

	s.logger.Debug("listed active products", "shop_id", shopID, "count", len(items))
	return items, nil
}

// Match finds the catalog item whose name best matches the supplied name.
// Matching is case-insensitive substring, bidirectional: "kit croissance"
// matches "Kit Croissance Cheveux Crépus" and vice versa. Returns false
// when nothing matches.
func Match(items []Item, name string) (Item, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Item{}, false
	}

	// Exact (case-insensitive) name wins over substring hits.
	for _, it := range items {
		if strings.ToLower(it.Name) == needle {
			return it, true
		}
	}
	for _, it := range items {
		haystack := strings.ToLower(it.Name)
		if strings.Contains(haystack, needle) || strings.Contains(needle, haystack) {
			return it, true
		}
	}
	return Item{}, false
}

// FormatPrice renders an amount with the shop currency, grouping
// thousands the way West African storefronts display prices.
func FormatPrice(amount int64, currency string) string {
	digits := fmt.Sprintf("%d", amount)
	if amount < 0 {
		digits = digits[1:]
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	grouped := b.String()
	if amount < 0 {
		grouped = "-" + grouped
	}
	return grouped + " " + currency
}
