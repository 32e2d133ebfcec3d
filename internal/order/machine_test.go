package order

import (
	"strings"
	"testing"

	"github.com/getdukka/chatseller-api-sub001/internal/catalog"
)

func TestDetectIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"acheter", "je veux acheter 2", true},
		{"commander", "comment commander", true},
		{"combien", "combien coûte le masque", true},
		{"quantity plus affirmative", "oui, 2 s'il vous plaît", true},
		{"quantity alone", "il y en a 2", false},
		{"plain question", "est-ce bon pour les cheveux secs", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := DetectIntent(tt.message); got != tt.want {
				t.Errorf("DetectIntent(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

// "je veux acheter 2" with no prior state starts a flow, extracts the
// quantity and lands on the phone step.
func TestMachine_StartAndFirstAdvance(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	msg := "je veux acheter 2"

	if !DetectIntent(msg) {
		t.Fatal("DetectIntent() = false for a purchase message")
	}

	st := m.Start(&catalog.Item{Name: "Masque Karité", Price: 9000})
	st = m.Advance(st, msg)

	if st.Step != StepPhone {
		t.Errorf("step = %q, want %q", st.Step, StepPhone)
	}
	if st.Data.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", st.Data.Quantity)
	}
}

// Extractor misses keep the step unchanged so the question is re-asked.
func TestMachine_NoOpTurnIsIdempotent(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	st := &State{Step: StepPhone, Data: Data{Quantity: 2}}

	got := m.Advance(st, "pourquoi avez-vous besoin de mon numéro ?")

	if got.Step != StepPhone {
		t.Errorf("step = %q, want %q", got.Step, StepPhone)
	}
	if got.Data != st.Data {
		t.Errorf("data mutated on a no-op turn: %+v", got.Data)
	}
}

func TestMachine_AdvanceDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	st := &State{Step: StepQuantity}
	m.Advance(st, "2")

	if st.Step != StepQuantity || st.Data.Quantity != 0 {
		t.Errorf("input state mutated: %+v", st)
	}
}

// Walks the full flow with delivery payment: every transition goes to
// the defined successor, including the address step.
func TestMachine_FullFlowWithDelivery(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	st := m.Start(&catalog.Item{Name: "Huile de Ricin", Price: 6500})

	steps := []struct {
		message string
		want    Step
	}{
		{"2", StepPhone},
		{"77 123 45 67", StepName},
		{"je suis Awa Diop", StepPayment},
		{"paiement à la livraison", StepAddress},
		{"j'habite à Ouakam près du marché", StepConfirmation},
		{"oui je confirme", StepCompleted},
	}

	for _, step := range steps {
		st = m.Advance(st, step.message)
		if st.Step != step.want {
			t.Fatalf("after %q: step = %q, want %q", step.message, st.Step, step.want)
		}
	}

	if st.Data.PaymentMethod != PaymentCashOnDelivery {
		t.Errorf("payment = %q, want %q", st.Data.PaymentMethod, PaymentCashOnDelivery)
	}
	if st.Total() != 13000 {
		t.Errorf("total = %d, want 13000", st.Total())
	}
}

// In-store pickup skips the address step entirely.
func TestMachine_PickupSkipsAddress(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	st := &State{Step: StepPayment, Data: Data{Quantity: 1}}

	st = m.Advance(st, "je préfère le retrait en boutique")

	if st.Step != StepConfirmation {
		t.Errorf("step = %q, want %q (address skipped on pickup)", st.Step, StepConfirmation)
	}
	if st.Data.PaymentMethod != PaymentInStorePickup {
		t.Errorf("payment = %q, want %q", st.Data.PaymentMethod, PaymentInStorePickup)
	}
}

func TestMachine_CompletedIsTerminal(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	st := &State{Step: StepCompleted, Data: Data{Quantity: 2}}

	got := m.Advance(st, "oui encore 3")

	if got.Step != StepCompleted || got.Data.Quantity != 2 {
		t.Errorf("completed state advanced: %+v", got)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	st := &State{
		Step: StepConfirmation,
		Data: Data{
			ProductName:       "Masque Karité",
			ProductPrice:      9000,
			Quantity:          2,
			CustomerFirstName: "Awa",
			CustomerLastName:  "Diop",
			CustomerPhone:     "771234567",
			CustomerAddress:   "Ouakam près du marché",
			PaymentMethod:     PaymentCashOnDelivery,
		},
	}

	got := Summary(st, "FCFA")

	for _, want := range []string{
		"Masque Karité × 2",
		"Awa Diop",
		"771234567",
		"Ouakam près du marché",
		"paiement à la livraison",
		"18 000 FCFA",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary() missing %q:\n%s", want, got)
		}
	}
}

func TestSummary_PickupShowsNoAddress(t *testing.T) {
	t.Parallel()

	st := &State{
		Step: StepConfirmation,
		Data: Data{
			ProductName:       "Masque Karité",
			ProductPrice:      9000,
			Quantity:          1,
			CustomerFirstName: "Moussa",
			CustomerPhone:     "781234567",
			PaymentMethod:     PaymentInStorePickup,
		},
	}

	got := Summary(st, "FCFA")

	if !strings.Contains(got, "retrait en boutique") {
		t.Errorf("Summary() missing pickup mention:\n%s", got)
	}
}

func TestInstruction_ConfirmationIncludesSummary(t *testing.T) {
	t.Parallel()

	st := &State{
		Step: StepConfirmation,
		Data: Data{ProductName: "Huile de Ricin", ProductPrice: 6500, Quantity: 2, PaymentMethod: PaymentCard},
	}

	got := Instruction(st, "FCFA")

	if !strings.Contains(got, "Récapitulatif") {
		t.Errorf("Instruction() missing summary:\n%s", got)
	}
	if !strings.Contains(got, "13 000 FCFA") {
		t.Errorf("Instruction() missing total:\n%s", got)
	}
}

func TestInstruction_EveryActiveStepHasOne(t *testing.T) {
	t.Parallel()

	for _, step := range []Step{
		StepQuantity, StepPhone, StepName, StepPayment,
		StepAddress, StepConfirmation, StepCompleted,
	} {
		st := &State{Step: step, Data: Data{Quantity: 1}}
		if Instruction(st, "FCFA") == "" {
			t.Errorf("Instruction() empty for step %q", step)
		}
	}
}
