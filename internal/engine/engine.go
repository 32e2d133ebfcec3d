// Package engine owns per-turn control flow: it loads tenant data and
// history, runs the order machine, assembles the prompt, calls the
// completion chain and interprets tool calls.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/getdukka/chatseller-api-sub001/internal/catalog"
	"github.com/getdukka/chatseller-api-sub001/internal/convo"
	"github.com/getdukka/chatseller-api-sub001/internal/dispatch"
	"github.com/getdukka/chatseller-api-sub001/internal/knowledge"
	"github.com/getdukka/chatseller-api-sub001/internal/order"
	"github.com/getdukka/chatseller-api-sub001/internal/prompt"
	"github.com/getdukka/chatseller-api-sub001/internal/provider"
	"github.com/getdukka/chatseller-api-sub001/internal/shop"
)

// Consumer-side views of the stores; the pgx-backed implementations
// satisfy them, tests substitute fakes.
type (
	// ShopStore reads the tenant and its agent persona.
	ShopStore interface {
		Get(ctx context.Context, id uuid.UUID) (*shop.Shop, error)
		GetPersona(ctx context.Context, shopID uuid.UUID) (*shop.Persona, error)
	}

	// ConversationStore manages conversations and their turn sequence.
	ConversationStore interface {
		Create(ctx context.Context, shopID uuid.UUID, visitorID string) (*convo.Conversation, error)
		Get(ctx context.Context, id uuid.UUID) (*convo.Conversation, error)
		Turns(ctx context.Context, conversationID uuid.UUID, limit int32) ([]convo.Turn, error)
		AppendTurns(ctx context.Context, conversationID uuid.UUID, turns []convo.Turn) error
	}

	// CatalogStore reads the tenant's active products.
	CatalogStore interface {
		ListActive(ctx context.Context, shopID uuid.UUID) ([]catalog.Item, error)
	}

	// DocumentStore reads the tenant's active knowledge documents.
	DocumentStore interface {
		ListActive(ctx context.Context, shopID uuid.UUID) ([]knowledge.Document, error)
	}

	// OrderStore persists completed orders.
	OrderStore interface {
		Create(ctx context.Context, o *order.Order) error
	}

	// Completer produces a conversational reply; it never errors.
	Completer interface {
		Complete(ctx context.Context, req provider.Request) *provider.Response
	}

	// Retriever grounds a message in documents, facts and the catalog.
	Retriever interface {
		Retrieve(message string, items []catalog.Item, docs []knowledge.Document, currency string) string
	}
)

// TurnRequest is one inbound shopper message. ConversationID is
// uuid.Nil on the first contact; the engine then opens a conversation.
type TurnRequest struct {
	ShopID         uuid.UUID
	ConversationID uuid.UUID
	VisitorID      string
	Message        string
}

// TurnResponse is what the caller renders and persists.
type TurnResponse struct {
	ConversationID uuid.UUID
	Reply          string
	Artifact       any
	OrderState     *order.State
}

// Engine orchestrates one turn at a time. Callers must serialize turns
// per conversation; the order machine double-advances when the same
// message is applied twice.
type Engine struct {
	shops       ShopStore
	convos      ConversationStore
	items       CatalogStore
	docs        DocumentStore
	orders      OrderStore
	states      order.StateStore
	machine     *order.Machine
	retriever   Retriever
	completer   Completer
	dispatcher  *dispatch.Dispatcher
	temperature float64
	historyCap  int32
	logger      *slog.Logger
}

// Config wires an Engine.
type Config struct {
	Shops       ShopStore
	Convos      ConversationStore
	Items       CatalogStore
	Docs        DocumentStore
	Orders      OrderStore
	States      order.StateStore
	Retriever   Retriever
	Completer   Completer
	Temperature float64
	HistoryCap  int32
	Logger      *slog.Logger
}

// New creates an Engine. Logger may be nil.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	historyCap := cfg.HistoryCap
	if historyCap <= 0 {
		historyCap = 50
	}
	return &Engine{
		shops:       cfg.Shops,
		convos:      cfg.Convos,
		items:       cfg.Items,
		docs:        cfg.Docs,
		orders:      cfg.Orders,
		states:      cfg.States,
		machine:     order.NewMachine(),
		retriever:   cfg.Retriever,
		completer:   cfg.Completer,
		dispatcher:  dispatch.New(logger),
		temperature: cfg.Temperature,
		historyCap:  historyCap,
		logger:      logger,
	}
}

// tenantData is everything loaded concurrently before the completion
// call.
type tenantData struct {
	turns []convo.Turn
	items []catalog.Item
	docs  []knowledge.Document
}

// HandleTurn processes one shopper message end to end. Provider
// failures degrade to an apology inside the completer; persistence
// failures are returned as errors because a dropped turn or order is
// unacceptable.
func (e *Engine) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	sh, err := e.shops.Get(ctx, req.ShopID)
	if err != nil {
		return nil, fmt.Errorf("loading shop: %w", err)
	}
	persona, err := e.shops.GetPersona(ctx, req.ShopID)
	if err != nil {
		return nil, fmt.Errorf("loading persona: %w", err)
	}

	conversation, err := e.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := e.loadTenantData(ctx, req.ShopID, conversation.ID)
	if err != nil {
		return nil, err
	}

	// A pure greeting turn needs no completion call.
	if len(data.turns) == 0 {
		return e.greet(ctx, conversation, persona, req.Message)
	}

	state, err := e.advanceOrder(ctx, conversation, req.Message, data.items)
	if err != nil {
		return nil, err
	}

	retrievalCtx := e.retriever.Retrieve(req.Message, data.items, data.docs, sh.Currency)
	system := prompt.Build(persona, retrievalCtx, sh.Name, false)
	if state != nil {
		system += "\n\nUne commande est en cours de préparation. " +
			order.Instruction(state, sh.Currency)
	}

	history := append(data.turns, convo.Turn{Role: convo.RoleUser, Content: req.Message})
	resp := e.completer.Complete(ctx, provider.Request{
		System:      system,
		History:     history,
		Temperature: e.temperature,
	})

	reply, artifact := e.resolveTools(resp, data.items, sh.Currency)

	if state != nil && state.Step == order.StepCompleted {
		if err := e.placeOrder(ctx, conversation, state, sh.Currency); err != nil {
			return nil, err
		}
		state = nil
	}

	if err := e.persistTurn(ctx, conversation.ID, req.Message, reply, state); err != nil {
		return nil, err
	}

	return &TurnResponse{
		ConversationID: conversation.ID,
		Reply:          reply,
		Artifact:       artifact,
		OrderState:     state,
	}, nil
}

func (e *Engine) resolveConversation(ctx context.Context, req TurnRequest) (*convo.Conversation, error) {
	if req.ConversationID == uuid.Nil {
		c, err := e.convos.Create(ctx, req.ShopID, req.VisitorID)
		if err != nil {
			return nil, fmt.Errorf("creating conversation: %w", err)
		}
		return c, nil
	}
	c, err := e.convos.Get(ctx, req.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	return c, nil
}

// loadTenantData fetches history, catalog and documents concurrently;
// the three reads are independent.
func (e *Engine) loadTenantData(ctx context.Context, shopID, conversationID uuid.UUID) (*tenantData, error) {
	type turnsResult struct {
		turns []convo.Turn
		err   error
	}
	type itemsResult struct {
		items []catalog.Item
		err   error
	}
	type docsResult struct {
		docs []knowledge.Document
		err  error
	}

	turnsCh := make(chan turnsResult, 1)
	itemsCh := make(chan itemsResult, 1)
	docsCh := make(chan docsResult, 1)

	go func() {
		turns, err := e.convos.Turns(ctx, conversationID, e.historyCap)
		turnsCh <- turnsResult{turns, err}
	}()
	go func() {
		items, err := e.items.ListActive(ctx, shopID)
		itemsCh <- itemsResult{items, err}
	}()
	go func() {
		docs, err := e.docs.ListActive(ctx, shopID)
		docsCh <- docsResult{docs, err}
	}()

	tr, ir, dr := <-turnsCh, <-itemsCh, <-docsCh
	if tr.err != nil {
		return nil, fmt.Errorf("loading history: %w", tr.err)
	}
	if ir.err != nil {
		return nil, fmt.Errorf("loading catalog: %w", ir.err)
	}
	if dr.err != nil {
		return nil, fmt.Errorf("loading documents: %w", dr.err)
	}
	return &tenantData{turns: tr.turns, items: ir.items, docs: dr.docs}, nil
}

// greet replies with the configured welcome message verbatim and
// records both turns.
func (e *Engine) greet(ctx context.Context, c *convo.Conversation, persona *shop.Persona, message string) (*TurnResponse, error) {
	if err := e.persistTurn(ctx, c.ID, message, persona.WelcomeMessage, nil); err != nil {
		return nil, err
	}
	e.logger.Debug("greeted new conversation", "conversation_id", c.ID)
	return &TurnResponse{ConversationID: c.ID, Reply: persona.WelcomeMessage}, nil
}

// advanceOrder loads, advances or starts the collection state. The
// returned state is not yet persisted; persistTurn stores it once the
// turn is certain to complete.
func (e *Engine) advanceOrder(ctx context.Context, c *convo.Conversation, message string, items []catalog.Item) (*order.State, error) {
	state, err := e.states.Get(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("loading collection state: %w", err)
	}

	switch {
	case state != nil:
		return e.machine.Advance(state, message), nil
	case order.DetectIntent(message):
		var product *catalog.Item
		if item, ok := catalog.Match(items, message); ok {
			product = &item
		}
		state = e.machine.Start(product)
		e.logger.Info("purchase intent detected", "conversation_id", c.ID)
		return e.machine.Advance(state, message), nil
	default:
		return nil, nil
	}
}

// resolveTools routes the first tool call to the dispatcher. The
// dispatcher's text replaces empty provider text; an artifact rides
// alongside whichever text wins.
func (e *Engine) resolveTools(resp *provider.Response, items []catalog.Item, currency string) (string, any) {
	if len(resp.ToolCalls) == 0 {
		return resp.Text, nil
	}

	result := e.dispatcher.Dispatch(resp.ToolCalls[0], items, currency)
	reply := result.Text
	if reply == "" {
		reply = resp.Text
	}
	if reply == "" {
		reply = provider.Apology
	}
	return reply, result.Artifact
}

// placeOrder writes the durable record and clears the collection state.
func (e *Engine) placeOrder(ctx context.Context, c *convo.Conversation, state *order.State, currency string) error {
	o := order.FromState(state, c.ShopID, c.ID, currency)
	if err := e.orders.Create(ctx, o); err != nil {
		return fmt.Errorf("persisting order: %w", err)
	}
	if err := e.states.Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("clearing collection state: %w", err)
	}
	e.logger.Info("order placed",
		"conversation_id", c.ID,
		"order_id", o.ID,
		"total", o.TotalAmount)
	return nil
}

// persistTurn appends both turns and stores the advanced collection
// state. Failures here are hard errors for the whole turn.
func (e *Engine) persistTurn(ctx context.Context, conversationID uuid.UUID, message, reply string, state *order.State) error {
	err := e.convos.AppendTurns(ctx, conversationID, []convo.Turn{
		{Role: convo.RoleUser, Content: message},
		{Role: convo.RoleAssistant, Content: reply},
	})
	if err != nil {
		return fmt.Errorf("persisting turns: %w", err)
	}
	if state != nil {
		if err := e.states.Set(ctx, conversationID, state); err != nil {
			return fmt.Errorf("persisting collection state: %w", err)
		}
	}
	return nil
}
