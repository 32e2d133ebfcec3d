package order

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Extractor pulls one step's fields out of a free-text reply and writes
// them into data. It reports false when nothing usable was found, in
// which case the flow stays on the same step and re-asks.
//
// The implementations below are deliberately lexical. The interface is
// the seam for swapping in an NLU-backed extractor later without
// touching the machine.
type Extractor interface {
	Extract(message string, data *Data) bool
}

var digitRun = regexp.MustCompile(`\d+`)

// frenchNumbers maps spelled-out quantities, which shoppers use at
// least as often as digits.
var frenchNumbers = map[string]int{
	"un": 1, "une": 1,
	"deux": 2, "trois": 3, "quatre": 4, "cinq": 5,
	"six": 6, "sept": 7, "huit": 8, "neuf": 9, "dix": 10,
}

type quantityExtractor struct{}

func (quantityExtractor) Extract(message string, data *Data) bool {
	if m := digitRun.FindString(message); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil || n < 1 {
			return false
		}
		data.Quantity = n
		return true
	}
	for _, word := range splitWords(message) {
		if n, ok := frenchNumbers[word]; ok {
			data.Quantity = n
			return true
		}
	}
	return false
}

type phoneExtractor struct{}

// Extract finds the first run of at least eight digits, tolerating
// spaces, dots, dashes and parentheses between them, and stores the
// digits only. "+221 77 123 45 67" becomes "221771234567".
func (phoneExtractor) Extract(message string, data *Data) bool {
	var digits strings.Builder
	flush := func() bool {
		if digits.Len() >= 8 {
			data.CustomerPhone = digits.String()
			return true
		}
		digits.Reset()
		return false
	}
	for _, r := range message {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == ' ' || r == '.' || r == '-' || r == '(' || r == ')' || r == '+':
			// separators inside a number are ignored
		default:
			if flush() {
				return true
			}
		}
	}
	return flush()
}

// nameFillers are tokens shoppers wrap their name in ("je suis Awa
// Diop", "je m'appelle Fatou").
var nameFillers = map[string]bool{
	"je": true, "suis": true, "m'appelle": true, "mappelle": true,
	"moi": true, "c'est": true, "cest": true, "mon": true, "nom": true,
	"prénom": true, "prenom": true, "est": true, "madame": true,
	"monsieur": true, "mme": true, "mlle": true,
}

type nameExtractor struct{}

func (nameExtractor) Extract(message string, data *Data) bool {
	var kept []string
	for _, word := range strings.Fields(strings.TrimSpace(message)) {
		if nameFillers[strings.ToLower(strings.Trim(word, ".,!?"))] {
			continue
		}
		kept = append(kept, strings.Trim(word, ".,!?"))
	}
	if len(kept) == 0 {
		return false
	}
	data.CustomerFirstName = kept[0]
	if len(kept) > 1 {
		data.CustomerLastName = strings.Join(kept[1:], " ")
	}
	return true
}

// addressFillers are lead-in phrases stripped before keeping the rest of
// the reply as the address. Longest first so "j'habite à" wins over
// "j'habite".
var addressFillers = []string{
	"mon adresse est", "mon adresse", "l'adresse est", "adresse:",
	"j'habite à", "j'habite a", "j'habite", "jhabite",
	"je suis à", "je suis a", "livraison à", "livraison a", "c'est à", "c'est a",
}

type addressExtractor struct{}

func (addressExtractor) Extract(message string, data *Data) bool {
	addr := strings.TrimSpace(message)
	lower := strings.ToLower(addr)
	for _, filler := range addressFillers {
		if strings.HasPrefix(lower, filler) {
			addr = strings.TrimSpace(addr[len(filler):])
			break
		}
	}
	if len([]rune(addr)) < 5 {
		return false
	}
	data.CustomerAddress = addr
	return true
}

// paymentAliases maps lowercase substrings to canonical methods. Order
// matters only within the slice; first hit wins.
var paymentAliases = []struct {
	substr string
	method string
}{
	{"à la livraison", PaymentCashOnDelivery},
	{"a la livraison", PaymentCashOnDelivery},
	{"espèces", PaymentCashOnDelivery},
	{"especes", PaymentCashOnDelivery},
	{"liquide", PaymentCashOnDelivery},
	{"cash", PaymentCashOnDelivery},
	{"virement", PaymentBankTransfer},
	{"orange money", PaymentMobileMoney},
	{"mobile money", PaymentMobileMoney},
	{"wave", PaymentMobileMoney},
	{"momo", PaymentMobileMoney},
	{"carte", PaymentCard},
	{"visa", PaymentCard},
	{"mastercard", PaymentCard},
	{"boutique", PaymentInStorePickup},
	{"sur place", PaymentInStorePickup},
	{"magasin", PaymentInStorePickup},
	{"retrait", PaymentInStorePickup},
}

type paymentExtractor struct{}

// Extract canonicalizes the payment method by substring match, falling
// back to the raw reply when nothing matches so an unusual answer still
// reaches the merchant verbatim.
func (paymentExtractor) Extract(message string, data *Data) bool {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, alias := range paymentAliases {
		if strings.Contains(lower, alias.substr) {
			data.PaymentMethod = alias.method
			return true
		}
	}
	data.PaymentMethod = trimmed
	return true
}

// affirmatives close the confirmation step.
var affirmatives = []string{
	"oui", "ok", "d'accord", "daccord", "confirme", "c'est bon",
	"cest bon", "valide", "parfait", "yes",
}

type confirmationExtractor struct{}

func (confirmationExtractor) Extract(message string, _ *Data) bool {
	lower := strings.ToLower(message)
	words := splitWords(message)
	for _, affirmative := range affirmatives {
		if strings.ContainsAny(affirmative, " '") {
			if strings.Contains(lower, affirmative) {
				return true
			}
			continue
		}
		for _, w := range words {
			if w == affirmative {
				return true
			}
		}
	}
	return false
}

// splitWords lowercases and splits on anything that is not a letter,
// keeping apostrophes inside words ("m'appelle").
func splitWords(message string) []string {
	return strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}
