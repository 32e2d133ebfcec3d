// Package dispatch resolves model-issued tool calls against the catalog
// and builds the structured artifacts the storefront widget renders.
package dispatch

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/getdukka/chatseller-api-sub001/internal/catalog"
	"github.com/getdukka/chatseller-api-sub001/internal/provider"
)

// Artifact kinds.
const (
	KindProductCard  = "product_card"
	KindCartMutation = "cart_mutation"
)

// ProductCard is rendered next to the reply when the model recommends a
// catalog product.
type ProductCard struct {
	Kind        string    `json:"kind"`
	ProductID   uuid.UUID `json:"productId"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	Currency    string    `json:"currency"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	PurchaseURL string    `json:"purchaseUrl,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

// CartMutation asks the caller to update the shopper's cart. No cart
// state lives in this engine.
type CartMutation struct {
	Kind      string    `json:"kind"`
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Currency  string    `json:"currency"`
	Quantity  int       `json:"quantity"`
}

// Result is the dispatcher's output: text to use as (part of) the reply
// and an optional artifact, either *ProductCard or *CartMutation.
type Result struct {
	Text     string
	Artifact any
}

// Dispatcher resolves tool calls for one tenant's catalog.
type Dispatcher struct {
	logger *slog.Logger
}

// New creates a dispatcher. logger may be nil.
func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Dispatch resolves one tool call. A product name missing from the
// catalog degrades to a plain-text mention; a card is never fabricated.
func (d *Dispatcher) Dispatch(call provider.ToolCall, items []catalog.Item, currency string) Result {
	switch call.Name {
	case provider.ToolRecommendProduct:
		return d.recommendProduct(call, items, currency)
	case provider.ToolAddToCart:
		return d.addToCart(call, items, currency)
	default:
		d.logger.Warn("unknown tool call", "tool", call.Name)
		return Result{}
	}
}

func (d *Dispatcher) recommendProduct(call provider.ToolCall, items []catalog.Item, currency string) Result {
	name := call.StringArg("product_name")
	reason := call.StringArg("reason")

	item, ok := catalog.Match(items, name)
	if !ok {
		d.logger.Info("recommended product not in catalog", "name", name)
		return Result{Text: fmt.Sprintf(
			"Je pensais à %s, mais je ne le retrouve pas dans notre catalogue actuel. Je peux vous proposer un produit équivalent si vous voulez.", name)}
	}

	text := reason
	if text == "" {
		text = fmt.Sprintf("Je vous recommande %s (%s).",
			item.Name, catalog.FormatPrice(item.Price, currency))
	}

	return Result{
		Text: text,
		Artifact: &ProductCard{
			Kind:        KindProductCard,
			ProductID:   item.ID,
			Name:        item.Name,
			Price:       item.Price,
			Currency:    currency,
			ImageURL:    item.ImageURL,
			PurchaseURL: item.PurchaseURL,
			Reason:      reason,
		},
	}
}

func (d *Dispatcher) addToCart(call provider.ToolCall, items []catalog.Item, currency string) Result {
	name := call.StringArg("product_name")
	quantity := call.IntArg("quantity")
	if quantity < 1 {
		quantity = 1
	}

	item, ok := catalog.Match(items, name)
	if !ok {
		d.logger.Info("cart target not in catalog", "name", name)
		return Result{Text: fmt.Sprintf(
			"Je ne retrouve pas %s dans notre catalogue. Pouvez-vous préciser le produit souhaité ?", name)}
	}

	return Result{
		Text: fmt.Sprintf("C'est noté ! J'ai ajouté %d × %s (%s) à votre panier.",
			quantity, item.Name, catalog.FormatPrice(item.Price*int64(quantity), currency)),
		Artifact: &CartMutation{
			Kind:      KindCartMutation,
			ProductID: item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Currency:  currency,
			Quantity:  quantity,
		},
	}
}
