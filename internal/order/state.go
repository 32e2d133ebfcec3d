// Package order implements the order-collection flow: the per-step
// extractors that pull structured fields out of free-text replies, the
// state machine that decides the next question, and persistence for both
// in-flight collection state and completed orders.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Step identifies one stage of the order-intake sequence.
type Step string

// Collection steps. Payment is asked before address so the address step
// can be skipped outright when the shopper pays at pickup.
const (
	StepQuantity     Step = "quantity"
	StepPhone        Step = "phone"
	StepName         Step = "name"
	StepPayment      Step = "payment"
	StepAddress      Step = "address"
	StepConfirmation Step = "confirmation"
	StepCompleted    Step = "completed"
)

// Canonical payment methods.
const (
	PaymentCashOnDelivery = "cash_on_delivery"
	PaymentBankTransfer   = "bank_transfer"
	PaymentMobileMoney    = "mobile_money"
	PaymentCard           = "card"
	PaymentInStorePickup  = "in_store_pickup"
)

// Data accumulates the fields collected across the flow.
type Data struct {
	ProductID         uuid.UUID `json:"productId,omitempty"`
	ProductName       string    `json:"productName,omitempty"`
	ProductPrice      int64     `json:"productPrice,omitempty"`
	Quantity          int       `json:"quantity,omitempty"`
	CustomerPhone     string    `json:"customerPhone,omitempty"`
	CustomerFirstName string    `json:"customerFirstName,omitempty"`
	CustomerLastName  string    `json:"customerLastName,omitempty"`
	CustomerAddress   string    `json:"customerAddress,omitempty"`
	PaymentMethod     string    `json:"paymentMethod,omitempty"`
}

// State is a conversation's in-flight order collection. At most one
// exists per conversation; it is cleared once the flow completes and the
// order is durably persisted.
type State struct {
	Step Step `json:"step"`
	Data Data `json:"data"`
}

// Total returns unit price × quantity.
func (s *State) Total() int64 {
	return s.Data.ProductPrice * int64(s.Data.Quantity)
}

// StateStore is the key-value abstraction for collection state, keyed by
// conversation. Get returns (nil, nil) when no state exists.
type StateStore interface {
	Get(ctx context.Context, conversationID uuid.UUID) (*State, error)
	Set(ctx context.Context, conversationID uuid.UUID, state *State) error
	Delete(ctx context.Context, conversationID uuid.UUID) error
}

// MemoryStateStore keeps collection state in process memory. Suitable
// for tests and single-instance deployments; production uses the
// Postgres-backed store so state survives restarts.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[uuid.UUID]State
}

// NewMemoryStateStore creates an empty in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[uuid.UUID]State)}
}

// Get returns a copy of the stored state, or (nil, nil) when absent.
func (m *MemoryStateStore) Get(_ context.Context, conversationID uuid.UUID) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[conversationID]
	if !ok {
		return nil, nil
	}
	cp := st
	return &cp, nil
}

// Set stores a copy of the state.
func (m *MemoryStateStore) Set(_ context.Context, conversationID uuid.UUID, state *State) error {
	if state == nil {
		return errors.New("state is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[conversationID] = *state
	return nil
}

// Delete removes the state; deleting a missing key is a no-op.
func (m *MemoryStateStore) Delete(_ context.Context, conversationID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, conversationID)
	return nil
}

// stateDB is the subset of pgxpool.Pool the Postgres state store needs.
type stateDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStateStore persists collection state in PostgreSQL so it survives
// process restarts and horizontal scaling.
type PGStateStore struct {
	db stateDB
}

// NewPGStateStore creates a Postgres-backed state store.
func NewPGStateStore(db stateDB) *PGStateStore {
	return &PGStateStore{db: db}
}

// Get loads the state for a conversation, (nil, nil) when absent.
func (p *PGStateStore) Get(ctx context.Context, conversationID uuid.UUID) (*State, error) {
	var step string
	var data []byte
	err := p.db.QueryRow(ctx, `
		SELECT step, data FROM order_collection_states
		WHERE conversation_id = $1`, conversationID).
		Scan(&step, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting collection state for %s: %w", conversationID, err)
	}

	st := &State{Step: Step(step)}
	if err := json.Unmarshal(data, &st.Data); err != nil {
		return nil, fmt.Errorf("unmarshaling collection state for %s: %w", conversationID, err)
	}
	return st, nil
}

// Set upserts the state for a conversation.
func (p *PGStateStore) Set(ctx context.Context, conversationID uuid.UUID, state *State) error {
	if state == nil {
		return errors.New("state is required")
	}
	data, err := json.Marshal(state.Data)
	if err != nil {
		return fmt.Errorf("marshaling collection state: %w", err)
	}
	_, err = p.db.Exec(ctx, `
		INSERT INTO order_collection_states (conversation_id, step, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (conversation_id) DO UPDATE
		SET step = EXCLUDED.step, data = EXCLUDED.data, updated_at = now()`,
		conversationID, string(state.Step), data)
	if err != nil {
		return fmt.Errorf("saving collection state for %s: %w", conversationID, err)
	}
	return nil
}

// Delete removes the state; deleting a missing key is a no-op.
func (p *PGStateStore) Delete(ctx context.Context, conversationID uuid.UUID) error {
	if _, err := p.db.Exec(ctx, `
		DELETE FROM order_collection_states WHERE conversation_id = $1`, conversationID); err != nil {
		return fmt.Errorf("deleting collection state for %s: %w", conversationID, err)
	}
	return nil
}
