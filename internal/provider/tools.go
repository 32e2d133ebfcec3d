package provider

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Tool names exposed to the primary model.
const (
	ToolRecommendProduct = "recommend_product"
	ToolAddToCart        = "add_to_cart"
)

// RecommendProductArgs is the schema for recommend_product.
type RecommendProductArgs struct {
	ProductName string `json:"product_name" jsonschema_description:"Exact or approximate name of the catalog product to recommend"`
	Reason      string `json:"reason" jsonschema_description:"One short sentence, in French, explaining why this product fits the shopper's need"`
}

// AddToCartArgs is the schema for add_to_cart.
type AddToCartArgs struct {
	ProductName string `json:"product_name" jsonschema_description:"Exact or approximate name of the catalog product to add"`
	Quantity    int    `json:"quantity,omitempty" jsonschema_description:"Number of units, defaults to 1"`
}

// DefineTools registers the sales tools on g and returns their refs for
// ai.WithTools. Generation runs with returned tool requests, so the
// handlers below never execute during a turn; they exist to carry the
// schema. The dispatcher resolves the requests against the catalog.
func DefineTools(g *genkit.Genkit) []ai.ToolRef {
	recommend := genkit.DefineTool(g, ToolRecommendProduct,
		"Recommande un produit du catalogue de la boutique au client. À utiliser dès qu'un produit précis correspond au besoin exprimé.",
		func(_ *ai.ToolContext, _ RecommendProductArgs) (string, error) {
			return "ok", nil
		})

	addToCart := genkit.DefineTool(g, ToolAddToCart,
		"Ajoute un produit du catalogue au panier du client quand il exprime clairement vouloir l'acheter.",
		func(_ *ai.ToolContext, _ AddToCartArgs) (string, error) {
			return "ok", nil
		})

	return []ai.ToolRef{recommend, addToCart}
}
