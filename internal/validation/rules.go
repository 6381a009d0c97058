package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Rule checks one value. A nil result means the value passes. Rules other
// than Required treat an empty value as unset and pass it.
type Rule func(label, value string) *Violation

// Required rejects values that are empty after trimming.
func Required() Rule {
	return func(label, value string) *Violation {
		if strings.TrimSpace(value) == "" {
			return &Violation{Kind: KindRequired, Message: label + " is required"}
		}
		return nil
	}
}

// MaxLength bounds the trimmed value to n characters.
func MaxLength(n int) Rule {
	return func(label, value string) *Violation {
		if utf8.RuneCountInString(strings.TrimSpace(value)) > n {
			return &Violation{Kind: KindTooLong, Message: fmt.Sprintf("%s must be at most %d characters", label, n)}
		}
		return nil
	}
}

// Pattern requires the trimmed value to match re. An empty message falls back
// to a generic invalid-characters text.
func Pattern(re *regexp.Regexp, message string) Rule {
	return func(label, value string) *Violation {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" || re.MatchString(trimmed) {
			return nil
		}
		msg := message
		if msg == "" {
			msg = label + " contains invalid characters"
		}
		return &Violation{Kind: KindInvalidFormat, Message: msg}
	}
}

// DecimalRange requires a number within [min, max] inclusive.
func DecimalRange(min, max decimal.Decimal) Rule {
	return func(label, value string) *Violation {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return nil
		}
		d, ok := ParseDecimal(trimmed)
		if !ok {
			return &Violation{Kind: KindInvalidFormat, Message: label + " must be a valid number"}
		}
		if d.LessThan(min) || d.GreaterThan(max) {
			return &Violation{Kind: KindOutOfRange, Message: fmt.Sprintf("%s must be between %s and %s", label, min.String(), max.String())}
		}
		return nil
	}
}

// MaxDecimals limits the number of digits after the decimal point.
func MaxDecimals(places int) Rule {
	return func(label, value string) *Violation {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return nil
		}
		if _, ok := ParseDecimal(trimmed); !ok {
			return &Violation{Kind: KindInvalidFormat, Message: label + " must be a valid number"}
		}
		if got := DecimalPlaces(trimmed); got > places {
			return &Violation{
				Kind:    KindPrecisionExceeded,
				Message: fmt.Sprintf("%s can have at most %d decimal places (got %d)", label, places, got),
			}
		}
		return nil
	}
}

// DecimalPlaces counts the characters after the first "." of value.
func DecimalPlaces(value string) int {
	_, frac, found := strings.Cut(strings.TrimSpace(value), ".")
	if !found {
		return 0
	}
	return len(frac)
}

// ParseDecimal parses plain decimal input, tolerating a trailing "." left
// mid-typing. Exponent notation is rejected so that DecimalPlaces stays
// accurate.
func ParseDecimal(value string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(value), ".")
	if trimmed == "" || trimmed == "-" || trimmed == "+" || strings.ContainsAny(trimmed, "eE") {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
