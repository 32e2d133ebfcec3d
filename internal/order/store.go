package order

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// StatusPending is the status every order carries when the engine
// persists it; fulfillment moves it onward outside this system.
const StatusPending = "pending"

// LineItem is one product line on an order.
type LineItem struct {
	ProductID   uuid.UUID `json:"productId,omitempty"`
	ProductName string    `json:"productName"`
	UnitPrice   int64     `json:"unitPrice"`
	Quantity    int       `json:"quantity"`
}

// Order is the durable record written when a collection flow completes.
type Order struct {
	ID              uuid.UUID
	ShopID          uuid.UUID
	ConversationID  uuid.UUID
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Items           []LineItem
	TotalAmount     int64
	Currency        string
	PaymentMethod   string
	Status          string
	CreatedAt       time.Time
}

// FromState builds the order record for a completed collection state.
func FromState(state *State, shopID, conversationID uuid.UUID, currency string) *Order {
	d := state.Data
	name := d.CustomerFirstName
	if d.CustomerLastName != "" {
		name += " " + d.CustomerLastName
	}
	return &Order{
		ID:              uuid.New(),
		ShopID:          shopID,
		ConversationID:  conversationID,
		CustomerName:    name,
		CustomerPhone:   d.CustomerPhone,
		CustomerAddress: d.CustomerAddress,
		Items: []LineItem{{
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			UnitPrice:   d.ProductPrice,
			Quantity:    d.Quantity,
		}},
		TotalAmount:   state.Total(),
		Currency:      currency,
		PaymentMethod: d.PaymentMethod,
		Status:        StatusPending,
	}
}

// orderDB is the subset of pgxpool.Pool the store needs.
type orderDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists completed orders in PostgreSQL.
type Store struct {
	db     orderDB
	logger *slog.Logger
}

// NewStore creates an order store. logger may be nil.
func NewStore(db orderDB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Create writes the order. A failure here is a hard error for the turn;
// a completed collection must never be silently dropped.
func (s *Store) Create(ctx context.Context, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO orders (id, shop_id, conversation_id, customer_name, customer_phone,
			customer_address, items, total_amount, currency, payment_method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())`,
		o.ID, o.ShopID, o.ConversationID, o.CustomerName, o.CustomerPhone,
		o.CustomerAddress, items, o.TotalAmount, o.Currency, o.PaymentMethod, o.Status)
	if err != nil {
		return fmt.Errorf("creating order %s: %w", o.ID, err)
	}

	s.logger.Info("order created",
		"order_id", o.ID,
		"shop_id", o.ShopID,
		"total", o.TotalAmount,
		"currency", o.Currency)
	return nil
}
