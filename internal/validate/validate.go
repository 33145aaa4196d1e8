package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const MaxQty = 99

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ     = regexp.MustCompile(`^[A-Za-z0-9 _'\\-]{1,50}$`)
	// colors and sizes: "red", "XXL", "off-white"
	reLabel = regexp.MustCompile(`^[A-Za-z0-9 -]{1,20}$`)
	rePrice = regexp.MustCompile(`^[0-9]{1,6}(\.[0-9]{1,2})?$`)
	reOrder = regexp.MustCompile(`^ORD-[0-9]{20}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

// Qty accepts 1..MaxQty; anything else is rejected rather than clamped.
func Qty(n int) (int, bool) {
	return n, n >= 1 && n <= MaxQty
}

// ID parses a positive numeric identifier from a path or form value.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Index parses a zero-based cart line index.
func Index(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Label validates a color or size name.
func Label(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reLabel.MatchString(s)
}

// Price parses a non-negative amount with at most two decimals.
func Price(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if !rePrice.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	return d, err == nil
}

// OrderNumber checks the ORD-<timestamp> shape used in return URLs.
func OrderNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reOrder.MatchString(s)
}

// Names splits a comma separated filter value, dropping blanks.
func Names(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v, ok := Label(part); ok {
			out = append(out, v)
		}
	}
	return out
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 20 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
