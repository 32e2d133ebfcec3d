package order

import "testing"

func TestQuantityExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    int
		ok      bool
	}{
		{"digits", "je veux acheter 2", 2, true},
		{"bare number", "3", 3, true},
		{"french word", "j'en prends deux", 2, true},
		{"une", "une seule s'il vous plaît", 1, true},
		{"digits win over words", "2 ou trois", 2, true},
		{"zero rejected", "0", 0, false},
		{"no quantity", "je ne sais pas encore", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var d Data
			ok := (quantityExtractor{}).Extract(tt.message, &d)
			if ok != tt.ok {
				t.Fatalf("Extract(%q) ok = %v, want %v", tt.message, ok, tt.ok)
			}
			if ok && d.Quantity != tt.want {
				t.Errorf("Extract(%q) quantity = %d, want %d", tt.message, d.Quantity, tt.want)
			}
		})
	}
}

func TestPhoneExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    string
		ok      bool
	}{
		{"plain digits", "77123456", "77123456", true},
		{"spaced with country code", "+221 77 123 45 67", "221771234567", true},
		{"dots and dashes", "77.123-45.67", "771234567", true},
		{"embedded in sentence", "mon numéro est le 77 123 45 67 merci", "771234567", true},
		{"too short", "appelle le 1234", "", false},
		{"no digits", "je vous le donne plus tard", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var d Data
			ok := (phoneExtractor{}).Extract(tt.message, &d)
			if ok != tt.ok {
				t.Fatalf("Extract(%q) ok = %v, want %v", tt.message, ok, tt.ok)
			}
			if ok && d.CustomerPhone != tt.want {
				t.Errorf("Extract(%q) phone = %q, want %q", tt.message, d.CustomerPhone, tt.want)
			}
		})
	}
}

func TestNameExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		message   string
		wantFirst string
		wantLast  string
		ok        bool
	}{
		{"bare name", "Awa Diop", "Awa", "Diop", true},
		{"je suis", "je suis Fatou Ndiaye", "Fatou", "Ndiaye", true},
		{"m'appelle", "je m'appelle Moussa", "Moussa", "", true},
		{"three part surname", "Aminata Ba Fall", "Aminata", "Ba Fall", true},
		{"only fillers", "je suis", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var d Data
			ok := (nameExtractor{}).Extract(tt.message, &d)
			if ok != tt.ok {
				t.Fatalf("Extract(%q) ok = %v, want %v", tt.message, ok, tt.ok)
			}
			if !ok {
				return
			}
			if d.CustomerFirstName != tt.wantFirst || d.CustomerLastName != tt.wantLast {
				t.Errorf("Extract(%q) = %q %q, want %q %q",
					tt.message, d.CustomerFirstName, d.CustomerLastName, tt.wantFirst, tt.wantLast)
			}
		})
	}
}

func TestAddressExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    string
		ok      bool
	}{
		{"bare address", "Médina rue 12 x 13, Dakar", "Médina rue 12 x 13, Dakar", true},
		{"j'habite à", "j'habite à Ouakam près du marché", "Ouakam près du marché", true},
		{"mon adresse est", "mon adresse est Sacré-Cœur 3, villa 120", "Sacré-Cœur 3, villa 120", true},
		{"too short", "ici", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var d Data
			ok := (addressExtractor{}).Extract(tt.message, &d)
			if ok != tt.ok {
				t.Fatalf("Extract(%q) ok = %v, want %v", tt.message, ok, tt.ok)
			}
			if ok && d.CustomerAddress != tt.want {
				t.Errorf("Extract(%q) address = %q, want %q", tt.message, d.CustomerAddress, tt.want)
			}
		})
	}
}

func TestPaymentExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"cash on delivery", "je paie à la livraison", PaymentCashOnDelivery},
		{"especes", "en espèces svp", PaymentCashOnDelivery},
		{"wave", "par Wave", PaymentMobileMoney},
		{"orange money", "Orange Money", PaymentMobileMoney},
		{"virement", "virement bancaire", PaymentBankTransfer},
		{"carte", "par carte", PaymentCard},
		{"pickup", "je passerai à la boutique", PaymentInStorePickup},
		{"raw fallback", "en coquillages cauris", "en coquillages cauris"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var d Data
			if ok := (paymentExtractor{}).Extract(tt.message, &d); !ok {
				t.Fatalf("Extract(%q) ok = false, want true", tt.message)
			}
			if d.PaymentMethod != tt.want {
				t.Errorf("Extract(%q) method = %q, want %q", tt.message, d.PaymentMethod, tt.want)
			}
		})
	}
}

func TestPaymentExtractor_EmptyFails(t *testing.T) {
	t.Parallel()

	var d Data
	if ok := (paymentExtractor{}).Extract("   ", &d); ok {
		t.Error("Extract() accepted a blank reply")
	}
}

func TestConfirmationExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		ok      bool
	}{
		{"oui", "oui je confirme", true},
		{"d'accord", "d'accord", true},
		{"c'est bon", "c'est bon pour moi", true},
		{"refusal", "non merci", false},
		{"hesitation", "je vais réfléchir", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := (confirmationExtractor{}).Extract(tt.message, nil); got != tt.ok {
				t.Errorf("Extract(%q) = %v, want %v", tt.message, got, tt.ok)
			}
		})
	}
}
