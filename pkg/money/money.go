// Package money holds the rounding, parsing and formatting rules applied to
// every amount the billing core computes or displays.
package money

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept on stored amounts.
const Places = 2

// ErrNotANumber is returned when operator input cannot be read as an amount.
var ErrNotANumber = errors.New("money: not a number")

// Round rounds half away from zero to two places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Parse reads an operator-typed amount. Surrounding spaces are ignored.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrNotANumber
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrNotANumber
	}
	return d, nil
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Sum adds amounts together.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// ClampQuantity floors a quantity at one.
func ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// Format renders an amount as "KES 1,234.50". An empty currency omits the prefix.
func Format(amount decimal.Decimal, currency string) string {
	s := Round(amount).StringFixed(Places)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i:]
	}

	var b strings.Builder
	if currency != "" {
		b.WriteString(currency)
		b.WriteByte(' ')
	}
	if negative {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(frac)
	return b.String()
}

// Input is a raw amount as typed by an operator. It accepts JSON numbers and
// strings so that non-numeric entries reach validation instead of failing
// request binding.
type Input struct {
	raw string
	set bool
}

// NewInput wraps raw operator text.
func NewInput(raw string) Input {
	return Input{raw: raw, set: true}
}

// FromDecimal wraps a known amount.
func FromDecimal(d decimal.Decimal) Input {
	return Input{raw: d.String(), set: true}
}

// IsSet reports whether a value was supplied at all.
func (in Input) IsSet() bool {
	return in.set
}

// Raw returns the text as supplied.
func (in Input) Raw() string {
	return in.raw
}

// Decimal parses the input. Missing input is not a number.
func (in Input) Decimal() (decimal.Decimal, error) {
	if !in.set {
		return decimal.Zero, ErrNotANumber
	}
	return Parse(in.raw)
}

// DecimalOr parses the input, falling back to def when nothing was supplied.
func (in Input) DecimalOr(def decimal.Decimal) (decimal.Decimal, error) {
	if !in.set {
		return def, nil
	}
	return Parse(in.raw)
}

func (in *Input) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*in = Input{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*in = Input{raw: s, set: true}
		return nil
	}
	*in = Input{raw: string(data), set: true}
	return nil
}

func (in Input) MarshalJSON() ([]byte, error) {
	if !in.set {
		return []byte("null"), nil
	}
	return json.Marshal(in.raw)
}
