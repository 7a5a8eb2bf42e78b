// Package core provides the currency, invoice and reporting domain.
//
// This file contains the rate table, the validation gate for user rate edits
// and decimal helpers used for display rounding.
package core

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// RateTable maps every currency to the units of that currency per one unit of
// BaseCurrency. A well-formed table is total over Currencies() and has the base
// rate fixed at exactly 1.
type RateTable map[Currency]float64

// DefaultRates returns a fresh copy of the hardcoded default table.
func DefaultRates() RateTable {
	return RateTable{
		USD: 1,
		EUR: 0.92,
		GBP: 0.79,
		JPY: 150.25,
		CAD: 1.35,
		AUD: 1.52,
		CNY: 7.20,
		SGD: 1.34,
		HKD: 7.82,
	}
}

// Clone returns an independent copy of the table.
func (t RateTable) Clone() RateTable {
	out := make(RateTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Rate returns the rate for c. A currency missing from the table is a
// programming error.
func (t RateTable) Rate(c Currency) float64 {
	r, ok := t[c]
	if !ok {
		panic("core: no rate for currency " + string(c))
	}
	return r
}

// WithEdit returns a copy of the table with the rate for c replaced by raw when
// raw is a strictly positive number. Anything else, including edits to the base
// currency, leaves the previous value in place.
func (t RateTable) WithEdit(c Currency, raw string) RateTable {
	out := t.Clone()
	if c == BaseCurrency || !c.Valid() {
		return out
	}
	r, err := ParseRate(raw)
	if err != nil {
		return out
	}
	out[c] = r
	return out
}

// ApplyEdits folds a set of raw edits into a copy of the table through the
// same gate as WithEdit. Currencies are applied in display order.
func (t RateTable) ApplyEdits(edits map[Currency]string) RateTable {
	out := t.Clone()
	for _, c := range currencies {
		if raw, ok := edits[c]; ok {
			out = out.WithEdit(c, raw)
		}
	}
	return out
}

// Codes returns the table's currencies sorted by display order.
func (t RateTable) Codes() []Currency {
	out := make([]Currency, 0, len(t))
	for c := range t {
		out = append(out, c)
	}
	order := make(map[Currency]int, len(currencies))
	for i, c := range currencies {
		order[c] = i
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i]] < order[out[j]] })
	return out
}

// ParseRate parses a user supplied rate. Both dot and comma decimal separators
// are accepted. The result must be strictly positive.
func ParseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidRate
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidRate
	}
	if !d.IsPositive() {
		return 0, ErrInvalidRate
	}
	// the stored float must stay finite and non-zero
	f := d.InexactFloat64()
	if f <= 0 || math.IsInf(f, 0) {
		return 0, ErrInvalidRate
	}
	return f, nil
}

// RoundRate rounds an exchange rate to four decimal places for display.
func RoundRate(r float64) float64 {
	return decimal.NewFromFloat(r).Round(4).InexactFloat64()
}

// FormatAmount formats an amount with two decimals and thousands separators.
func FormatAmount(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// Symbol returns a display symbol for the currencies that have an unambiguous
// one, otherwise the empty string.
func (c Currency) Symbol() string {
	switch c {
	case USD:
		return "$"
	case EUR:
		return "€"
	case GBP:
		return "£"
	case JPY:
		return "¥"
	default:
		return ""
	}
}
