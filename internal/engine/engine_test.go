package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/getdukka/chatseller-api-sub001/internal/catalog"
	"github.com/getdukka/chatseller-api-sub001/internal/convo"
	"github.com/getdukka/chatseller-api-sub001/internal/dispatch"
	"github.com/getdukka/chatseller-api-sub001/internal/knowledge"
	"github.com/getdukka/chatseller-api-sub001/internal/order"
	"github.com/getdukka/chatseller-api-sub001/internal/provider"
	"github.com/getdukka/chatseller-api-sub001/internal/shop"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeShops struct {
	shop    *shop.Shop
	persona *shop.Persona
}

func (f *fakeShops) Get(context.Context, uuid.UUID) (*shop.Shop, error) { return f.shop, nil }
func (f *fakeShops) GetPersona(context.Context, uuid.UUID) (*shop.Persona, error) {
	return f.persona, nil
}

type fakeConvos struct {
	conversation *convo.Conversation
	turns        []convo.Turn
	appended     []convo.Turn
	appendErr    error
}

func (f *fakeConvos) Create(_ context.Context, shopID uuid.UUID, visitorID string) (*convo.Conversation, error) {
	f.conversation = &convo.Conversation{ID: uuid.New(), ShopID: shopID, VisitorID: visitorID}
	return f.conversation, nil
}

func (f *fakeConvos) Get(context.Context, uuid.UUID) (*convo.Conversation, error) {
	return f.conversation, nil
}

func (f *fakeConvos) Turns(context.Context, uuid.UUID, int32) ([]convo.Turn, error) {
	return f.turns, nil
}

func (f *fakeConvos) AppendTurns(_ context.Context, _ uuid.UUID, turns []convo.Turn) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, turns...)
	return nil
}

type fakeItems struct{ items []catalog.Item }

func (f *fakeItems) ListActive(context.Context, uuid.UUID) ([]catalog.Item, error) {
	return f.items, nil
}

type fakeDocs struct{ docs []knowledge.Document }

func (f *fakeDocs) ListActive(context.Context, uuid.UUID) ([]knowledge.Document, error) {
	return f.docs, nil
}

type fakeOrders struct {
	created []*order.Order
	err     error
}

func (f *fakeOrders) Create(_ context.Context, o *order.Order) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, o)
	return nil
}

// completerFunc records requests and plays back a scripted response.
type completerFunc struct {
	resp  *provider.Response
	calls []provider.Request
}

func (c *completerFunc) Complete(_ context.Context, req provider.Request) *provider.Response {
	c.calls = append(c.calls, req)
	if c.resp == nil {
		return &provider.Response{Text: "réponse du modèle"}
	}
	return c.resp
}

type fixture struct {
	engine    *Engine
	shops     *fakeShops
	convos    *fakeConvos
	orders    *fakeOrders
	states    *order.MemoryStateStore
	completer *completerFunc
}

func newFixture(t *testing.T, items []catalog.Item, priorTurns []convo.Turn) *fixture {
	t.Helper()

	shopID := uuid.New()
	f := &fixture{
		shops: &fakeShops{
			shop: &shop.Shop{ID: shopID, Name: "Jolie Coiffure", Currency: "FCFA"},
			persona: &shop.Persona{
				Name:           "Aïcha",
				WelcomeMessage: "Bonjour et bienvenue chez Jolie Coiffure !",
			},
		},
		convos: &fakeConvos{
			conversation: &convo.Conversation{ID: uuid.New(), ShopID: shopID},
			turns:        priorTurns,
		},
		orders:    &fakeOrders{},
		states:    order.NewMemoryStateStore(),
		completer: &completerFunc{},
	}
	f.engine = New(Config{
		Shops:     f.shops,
		Convos:    f.convos,
		Items:     &fakeItems{items: items},
		Docs:      &fakeDocs{},
		Orders:    f.orders,
		States:    f.states,
		Retriever: knowledge.NewRetriever(nil),
		Completer: f.completer,
		Logger:    nil,
	})
	return f
}

func priorExchange() []convo.Turn {
	return []convo.Turn{
		{Role: convo.RoleUser, Content: "bonjour"},
		{Role: convo.RoleAssistant, Content: "Bonjour et bienvenue chez Jolie Coiffure !"},
	}
}

// A conversation with zero prior turns gets the welcome message
// verbatim and no completion call.
func TestHandleTurn_FirstMessageShortCircuits(t *testing.T) {
	f := newFixture(t, nil, nil)

	resp, err := f.engine.HandleTurn(context.Background(), TurnRequest{
		ShopID:  f.shops.shop.ID,
		Message: "bonjour",
	})
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}

	if resp.Reply != "Bonjour et bienvenue chez Jolie Coiffure !" {
		t.Errorf("Reply = %q, want welcome message verbatim", resp.Reply)
	}
	if len(f.completer.calls) != 0 {
		t.Error("completion called for a pure greeting turn")
	}
	if len(f.convos.appended) != 2 {
		t.Errorf("appended %d turns, want 2", len(f.convos.appended))
	}
}

func TestHandleTurn_FollowUpCallsCompleter(t *testing.T) {
	f := newFixture(t, nil, priorExchange())

	resp, err := f.engine.HandleTurn(context.Background(), TurnRequest{
		ShopID:         f.shops.shop.ID,
		ConversationID: f.convos.conversation.ID,
		Message:        "avez-vous un produit pour cheveux secs ?",
	})
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}

	if resp.Reply != "réponse du modèle" {
		t.Errorf("Reply = %q, want completer reply", resp.Reply)
	}
	if len(f.completer.calls) != 1 {
		t.Fatalf("completer called %d times, want 1", len(f.completer.calls))
	}

	req := f.completer.calls[0]
	if len(req.History) != 3 {
		t.Errorf("history length = %d, want prior 2 + current 1", len(req.History))
	}
	if req.History[2].Content != "avez-vous un produit pour cheveux secs ?" {
		t.Errorf("last history turn = %q, want current message", req.History[2].Content)
	}
	if !strings.Contains(req.System, "ne commence jamais ta réponse par une salutation") {
		t.Errorf("system prompt missing no-greeting directive:\n%s", req.System)
	}
}

// Purchase intent starts a collection flow; the quantity in the same
// message is extracted and the flow lands on the phone step.
func TestHandleTurn_IntentStartsCollection(t *testing.T) {
	f := newFixture(t, nil, priorExchange())

	resp, err := f.engine.HandleTurn(context.Background(), TurnRequest{
		ShopID:         f.shops.shop.ID,
		ConversationID: f.convos.conversation.ID,
		Message:        "je veux acheter 2",
	})
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}

	if resp.OrderState == nil {
		t.Fatal("OrderState = nil, want an in-flight collection")
	}
	if resp.OrderState.Step != order.StepPhone {
		t.Errorf("step = %q, want %q", resp.OrderState.Step, order.StepPhone)
	}
	if resp.OrderState.Data.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", resp.OrderState.Data.Quantity)
	}

	stored, err := f.states.Get(context.Background(), f.convos.conversation.ID)
	if err != nil || stored == nil || stored.Step != order.StepPhone {
		t.Errorf("stored state = %+v, err = %v", stored, err)
	}

	if !strings.Contains(f.completer.calls[0].System, "numéro de téléphone") {
		t.Errorf("system prompt missing phone instruction:\n%s", f.completer.calls[0].System)
	}
}

// The confirmation reply completes the flow: the order is persisted,
// the state cleared, and the response carries no in-flight state.
func TestHandleTurn_ConfirmationPlacesOrder(t *testing.T) {
	f := newFixture(t, nil, priorExchange())
	ctx := context.Background()

	st := &order.State{
		Step: order.StepConfirmation,
		Data: order.Data{
			ProductName:       "Huile de Ricin",
			ProductPrice:      6500,
			Quantity:          2,
			CustomerFirstName: "Awa",
			CustomerLastName:  "Diop",
			CustomerPhone:     "771234567",
			CustomerAddress:   "Ouakam",
			PaymentMethod:     order.PaymentCashOnDelivery,
		},
	}
	if err := f.states.Set(ctx, f.convos.conversation.ID, st); err != nil {
		t.Fatal(err)
	}

	resp, err := f.engine.HandleTurn(ctx, TurnRequest{
		ShopID:         f.shops.shop.ID,
		ConversationID: f.convos.conversation.ID,
		Message:        "oui je confirme",
	})
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}

	if len(f.orders.created) != 1 {
		t.Fatalf("created %d orders, want 1", len(f.orders.created))
	}
	o := f.orders.created[0]
	if o.TotalAmount != 13000 || o.CustomerName != "Awa Diop" || o.Status != order.StatusPending {
		t.Errorf("order = %+v", o)
	}

	if resp.OrderState != nil {
		t.Errorf("OrderState = %+v, want nil after completion", resp.OrderState)
	}
	cleared, _ := f.states.Get(ctx, f.convos.conversation.ID)
	if cleared != nil {
		t.Error("collection state not cleared after completion")
	}
}

func TestHandleTurn_OrderWriteFailureIsHard(t *testing.T) {
	f := newFixture(t, nil, priorExchange())
	f.orders.err = errors.New("connection lost")
	ctx := context.Background()

	st := &order.State{
		Step: order.StepConfirmation,
		Data: order.Data{Quantity: 1, PaymentMethod: order.PaymentCard},
	}
	if err := f.states.Set(ctx, f.convos.conversation.ID, st); err != nil {
		t.Fatal(err)
	}

	_, err := f.engine.HandleTurn(ctx, TurnRequest{
		ShopID:         f.shops.shop.ID,
		ConversationID: f.convos.conversation.ID,
		Message:        "oui",
	})
	if err == nil {
		t.Fatal("HandleTurn() error = nil, want hard failure on dropped order")
	}
}

func TestHandleTurn_PersistenceFailureIsHard(t *testing.T) {
	f := newFixture(t, nil, priorExchange())
	f.convos.appendErr = errors.New("disk full")

	_, err := f.engine.HandleTurn(context.Background(), TurnRequest{
		ShopID:         f.shops.shop.ID,
		ConversationID: f.convos.conversation.ID,
		Message:        "une question",
	})
	if err == nil {
		t.Fatal("HandleTurn() error = nil, want hard failure")
	}
}

func TestHandleTurn_ToolCallBuildsArtifact(t *testing.T) {
	items := []catalog.Item{
		{ID: uuid.New(), Name: "Huile de Ricin Pure", Price: 6500},
	}
	f := newFixture(t, items, priorExchange())
	f.completer.resp = &provider.Response{
		ToolCalls: []provider.ToolCall{{
			Name: provider.ToolRecommendProduct,
			Args: map[string]any{
				"product_name": "huile de ricin",
				"reason":       "Elle fortifie les cheveux cassants.",
			},
		}},
	}

	resp, err := f.engine.HandleTurn(context.Background(), TurnRequest{
		ShopID:         f.shops.shop.ID,
		ConversationID: f.convos.conversation.ID,
		Message:        "que me conseillez-vous ?",
	})
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}

	if resp.Reply != "Elle fortifie les cheveux cassants." {
		t.Errorf("Reply = %q, want tool reason", resp.Reply)
	}
	card, ok := resp.Artifact.(*dispatch.ProductCard)
	if !ok {
		t.Fatalf("Artifact = %T, want *dispatch.ProductCard", resp.Artifact)
	}
	if card.Name != "Huile de Ricin Pure" {
		t.Errorf("card name = %q", card.Name)
	}
}

func TestHandleTurn_NewConversationCreated(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.convos.conversation = nil

	resp, err := f.engine.HandleTurn(context.Background(), TurnRequest{
		ShopID:    f.shops.shop.ID,
		VisitorID: "visitor-1",
		Message:   "bonjour",
	})
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if resp.ConversationID == uuid.Nil {
		t.Error("ConversationID = nil uuid, want a created conversation")
	}
}
