package order

import (
	"fmt"
	"strings"

	"github.com/getdukka/chatseller-api-sub001/internal/catalog"
)

// intentKeywords signal that the shopper wants to buy, which starts the
// collection flow.
var intentKeywords = []string{
	"acheter", "achète", "achete", "commander", "commande", "combien",
	"je prends", "je veux", "je le veux", "vais prendre",
}

// DetectIntent reports whether the message expresses purchase intent:
// either a buying keyword, or a quantity alongside an affirmative token
// ("oui, 2 s'il vous plaît").
func DetectIntent(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range intentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	var d Data
	if !(quantityExtractor{}).Extract(message, &d) {
		return false
	}
	return (confirmationExtractor{}).Extract(message, nil)
}

// Machine advances collection state one user message at a time. It is
// stateless itself; callers load and store State around each call.
type Machine struct {
	extractors map[Step]Extractor
}

// NewMachine creates a machine with the lexical extractors.
func NewMachine() *Machine {
	return &Machine{
		extractors: map[Step]Extractor{
			StepQuantity:     quantityExtractor{},
			StepPhone:        phoneExtractor{},
			StepName:         nameExtractor{},
			StepPayment:      paymentExtractor{},
			StepAddress:      addressExtractor{},
			StepConfirmation: confirmationExtractor{},
		},
	}
}

// Start creates a fresh state at the quantity step. product carries the
// item the shopper is buying when it is known; nil leaves the product
// fields empty for the merchant to reconcile.
func (m *Machine) Start(product *catalog.Item) *State {
	st := &State{Step: StepQuantity}
	if product != nil {
		st.Data.ProductID = product.ID
		st.Data.ProductName = product.Name
		st.Data.ProductPrice = product.Price
	}
	return st
}

// Advance applies the current step's extractor to the message and
// returns the resulting state. The input state is not mutated. When the
// extractor finds nothing the returned state equals the input and the
// flow re-asks the same question. Advancing a completed state is a
// no-op.
func (m *Machine) Advance(state *State, message string) *State {
	next := *state
	if next.Step == StepCompleted {
		return &next
	}

	ex, ok := m.extractors[next.Step]
	if !ok || !ex.Extract(message, &next.Data) {
		return &next
	}
	next.Step = nextStep(next.Step, next.Data)
	return &next
}

// nextStep returns the step after current. Address is skipped when the
// shopper pays at pickup in the shop.
func nextStep(current Step, data Data) Step {
	switch current {
	case StepQuantity:
		return StepPhone
	case StepPhone:
		return StepName
	case StepName:
		return StepPayment
	case StepPayment:
		if data.PaymentMethod == PaymentInStorePickup {
			return StepConfirmation
		}
		return StepAddress
	case StepAddress:
		return StepConfirmation
	case StepConfirmation:
		return StepCompleted
	default:
		return StepCompleted
	}
}

// Instruction returns the French directive appended to the system prompt
// so the model asks the right next question for the state.
func Instruction(state *State, currency string) string {
	switch state.Step {
	case StepQuantity:
		return "Demande au client combien d'unités il souhaite commander."
	case StepPhone:
		return "Demande au client son numéro de téléphone pour la confirmation de la commande."
	case StepName:
		return "Demande au client son nom complet."
	case StepPayment:
		return "Demande au client son mode de paiement: paiement à la livraison, mobile money (Wave, Orange Money), virement, carte bancaire, ou retrait en boutique."
	case StepAddress:
		return "Demande au client son adresse de livraison complète (quartier, ville, repères)."
	case StepConfirmation:
		return "Présente ce récapitulatif au client et demande-lui de confirmer explicitement sa commande:\n" +
			Summary(state, currency)
	case StepCompleted:
		return "Remercie le client et confirme que sa commande a bien été enregistrée. L'équipe le contactera au numéro fourni."
	default:
		return ""
	}
}

// Summary renders the collected order for the confirmation step.
func Summary(state *State, currency string) string {
	d := state.Data

	var b strings.Builder
	b.WriteString("Récapitulatif de la commande:\n")
	if d.ProductName != "" {
		fmt.Fprintf(&b, "- Produit: %s × %d\n", d.ProductName, d.Quantity)
	} else {
		fmt.Fprintf(&b, "- Quantité: %d\n", d.Quantity)
	}
	name := strings.TrimSpace(d.CustomerFirstName + " " + d.CustomerLastName)
	fmt.Fprintf(&b, "- Client: %s, tél. %s\n", name, d.CustomerPhone)
	if d.PaymentMethod == PaymentInStorePickup {
		b.WriteString("- Livraison: retrait en boutique\n")
	} else {
		fmt.Fprintf(&b, "- Livraison: %s\n", d.CustomerAddress)
	}
	fmt.Fprintf(&b, "- Paiement: %s\n", paymentLabel(d.PaymentMethod))
	if d.ProductPrice > 0 && d.Quantity > 0 {
		fmt.Fprintf(&b, "- Total: %s", catalog.FormatPrice(state.Total(), currency))
	}
	return strings.TrimRight(b.String(), "\n")
}

// paymentLabel renders a canonical method in French; non-canonical
// values pass through as the shopper wrote them.
func paymentLabel(method string) string {
	switch method {
	case PaymentCashOnDelivery:
		return "paiement à la livraison"
	case PaymentBankTransfer:
		return "virement bancaire"
	case PaymentMobileMoney:
		return "mobile money"
	case PaymentCard:
		return "carte bancaire"
	case PaymentInStorePickup:
		return "retrait en boutique"
	default:
		return method
	}
}
