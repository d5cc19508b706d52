package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

const rupee = "₹"

// FormatINR renders an amount the way the en-IN locale prints rupees:
// two fraction digits and lakh/crore grouping (₹1,23,456.78).
func FormatINR(amount decimal.Decimal) string {
	fixed := amount.Round(2).StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		fixed = fixed[1:]
		if fixed != "0.00" {
			sign = "-"
		}
	}

	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + rupee + groupIndian(whole) + "." + frac
}

// groupIndian inserts separators after the last three digits and then every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(append(groups, tail), ",")
}
