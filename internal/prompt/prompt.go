// Package prompt assembles the system instruction sent with every
// completion call.
package prompt

import (
	"fmt"
	"strings"

	"github.com/getdukka/chatseller-api-sub001/internal/shop"
)

// safetyRules are non-negotiable directives included in every prompt.
const safetyRules = `Règles impératives:
- Ne jamais inventer un produit, un prix ou une promotion. Recommande uniquement les produits listés dans le contexte.
- Si un produit demandé n'existe pas dans le catalogue, dis-le honnêtement et propose une alternative du catalogue.
- Pour les actifs puissants (rétinol, acides exfoliants), rappelle toujours le test de patch 24h avant la première utilisation.
- Pour les problèmes médicaux (chute de cheveux sévère, lésions du cuir chevelu, réactions allergiques), recommande une consultation chez un dermatologue.
- Réponds en français, avec des messages courts adaptés à une conversation de vente.`

// Build produces the system instruction for one turn. The greeting
// directive is mutually exclusive: the model either opens with the
// configured welcome message or is forbidden to greet at all. The
// completion call is stateless and replays full history every turn, so
// this directive is the only thing stopping the model from re-greeting
// a returning shopper.
func Build(persona *shop.Persona, retrievalContext, shopName string, isFirstMessage bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Tu es %s", persona.Name)
	if persona.Title != "" {
		fmt.Fprintf(&b, ", %s", persona.Title)
	}
	fmt.Fprintf(&b, " de la boutique %s.", shopName)
	if persona.Tone != "" {
		fmt.Fprintf(&b, " Ton style: %s.", persona.Tone)
	}
	b.WriteString("\n\n")

	b.WriteString("Contexte boutique:\n")
	b.WriteString(retrievalContext)
	b.WriteString("\n\n")

	b.WriteString(safetyRules)
	b.WriteString("\n\n")

	if isFirstMessage {
		fmt.Fprintf(&b, "C'est le premier message du client: commence ta réponse par ce message de bienvenue, mot pour mot: %q", persona.WelcomeMessage)
	} else {
		b.WriteString("La conversation est déjà engagée: ne commence jamais ta réponse par une salutation (pas de « Bonjour », « Salut », « Hello » ou équivalent). Réponds directement.")
	}

	return b.String()
}
