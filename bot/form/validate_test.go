package form

import (
	"errors"
	"testing"
)

func TestValidateCard(t *testing.T) {
	got, err := ValidateCard("  2202 2026 8321 4532 ")
	if err != nil {
		t.Fatalf("valid card rejected: %v", err)
	}
	// Grouping spaces are preserved in the stored value.
	if got != "2202 2026 8321 4532" {
		t.Fatalf("card = %q", got)
	}

	for _, raw := range []string{"", "1234", "1234 5678 9012 345a", "12345678901234567890"} {
		if _, err := ValidateCard(raw); err == nil {
			t.Fatalf("card %q accepted", raw)
		}
	}
}

func TestValidateSupportNormalizesPrefix(t *testing.T) {
	for raw, want := range map[string]string{
		"@OneNightSupport": "@OneNightSupport",
		"OneNightSupport":  "@OneNightSupport",
		"  helper  ":       "@helper",
	} {
		got, err := ValidateSupport(raw)
		if err != nil {
			t.Fatalf("support %q rejected: %v", raw, err)
		}
		if got != want {
			t.Fatalf("support %q = %q, want %q", raw, got, want)
		}
	}
	if _, err := ValidateSupport("   "); err == nil {
		t.Fatal("blank support accepted")
	}
}

func TestValidatePriceStripsFormatting(t *testing.T) {
	got, err := validatePrice(" 5 000 ₽ ")
	if err != nil {
		t.Fatalf("formatted price rejected: %v", err)
	}
	if got != 5000 {
		t.Fatalf("price = %v", got)
	}

	for _, raw := range []string{"999", "abc", "-5000", ""} {
		_, err := validatePrice(raw)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("price %q: err = %v, want *ValidationError", raw, err)
		}
	}
}

func TestValidateNameLengthBounds(t *testing.T) {
	if _, err := validateName("Ан"); err != nil {
		t.Fatalf("two-rune name rejected: %v", err)
	}
	if _, err := validateName("А"); err == nil {
		t.Fatal("one-rune name accepted")
	}
	long := make([]rune, 31)
	for i := range long {
		long[i] = 'а'
	}
	if _, err := validateName(string(long)); err == nil {
		t.Fatal("31-rune name accepted")
	}
}

func TestValidateServicesSplitsAndTrims(t *testing.T) {
	got, err := validateServices(" Классика , , Массаж,")
	if err != nil {
		t.Fatalf("services rejected: %v", err)
	}
	services := got.([]string)
	if len(services) != 2 || services[0] != "Классика" || services[1] != "Массаж" {
		t.Fatalf("services = %v", services)
	}
}
