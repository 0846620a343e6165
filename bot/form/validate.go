package form

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// validateName accepts 2 to 30 characters.
func validateName(raw string) (any, error) {
	name := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(name); n < 2 || n > 30 {
		return nil, &ValidationError{
			Step:   "name",
			Reason: "❌ Имя должно быть от 2 до 30 символов. Попробуйте снова:",
		}
	}
	return name, nil
}

// intInRange builds a validator for a whole number within [min, max].
func intInRange(step StepID, min, max int, reject string) func(string) (any, error) {
	return func(raw string) (any, error) {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < min || n > max {
			return nil, &ValidationError{Step: step, Reason: reject}
		}
		return n, nil
	}
}

// validateCity accepts any text of at least 2 characters.
func validateCity(raw string) (any, error) {
	city := strings.TrimSpace(raw)
	if utf8.RuneCountInString(city) < 2 {
		return nil, &ValidationError{
			Step:   "city",
			Reason: "❌ Введите корректный город:",
		}
	}
	return city, nil
}

// validatePrice strips spaces and the currency sign, then requires a whole
// number of at least 1000.
func validatePrice(raw string) (any, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "₽", "")
	n, err := strconv.Atoi(cleaned)
	if err != nil || n < 1000 {
		return nil, &ValidationError{
			Step:   "price",
			Reason: "❌ Введите корректную цену (от 1000 ₽):",
		}
	}
	return n, nil
}

// validateDescription accepts any text, trimmed.
func validateDescription(raw string) (any, error) {
	return strings.TrimSpace(raw), nil
}

// validateServices splits a comma-separated list, trimming entries and
// dropping empty ones.
func validateServices(raw string) (any, error) {
	var services []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			services = append(services, s)
		}
	}
	return services, nil
}

// ValidateCard requires 13 to 19 digits once grouping spaces are removed.
// The stored value keeps the original spacing.
func ValidateCard(raw string) (any, error) {
	card := strings.TrimSpace(raw)
	digits := strings.ReplaceAll(card, " ", "")
	if len(digits) < 13 || len(digits) > 19 || !allDigits(digits) {
		return nil, &ValidationError{
			Step:   "card",
			Reason: "❌ Неверный формат карты. Введите номер карты (13-19 цифр):",
		}
	}
	return card, nil
}

// ValidateSupport normalizes a support contact to its @-prefixed form.
func ValidateSupport(raw string) (any, error) {
	username := strings.TrimSpace(raw)
	if username == "" {
		return nil, &ValidationError{
			Step:   "support",
			Reason: "❌ Отправьте username поддержки (с @):",
		}
	}
	if !strings.HasPrefix(username, "@") {
		username = "@" + username
	}
	return username, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
