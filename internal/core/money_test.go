package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRate(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"0.92", 0.92, true},
		{"1,35", 1.35, true},
		{" 150.25 ", 150.25, true},
		{"7", 7, true},
		{"0", 0, false},
		{"0.0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"1.2.3", 0, false},
		{"1e-400", 0, false},
		{"1e400", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseRate(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestDefaultRates(t *testing.T) {
	want := RateTable{
		USD: 1, EUR: 0.92, GBP: 0.79, JPY: 150.25, CAD: 1.35,
		AUD: 1.52, CNY: 7.20, SGD: 1.34, HKD: 7.82,
	}
	assert.Equal(t, want, DefaultRates())

	// Each call hands out an independent table.
	a := DefaultRates()
	a[EUR] = 2
	assert.Equal(t, 0.92, DefaultRates()[EUR])
}

func TestRateTableWithEdit(t *testing.T) {
	base := DefaultRates()

	t.Run("accepts positive number", func(t *testing.T) {
		got := base.WithEdit(EUR, "0.95")
		assert.Equal(t, 0.95, got[EUR])
		assert.Equal(t, 0.92, base[EUR], "original table must not change")
	})

	for _, raw := range []string{"abc", "0", "-3", "", "1e-400", "1e400"} {
		t.Run("rejects "+raw, func(t *testing.T) {
			got := base.WithEdit(GBP, raw)
			assert.Equal(t, 0.79, got[GBP])
		})
	}

	t.Run("base currency stays at one", func(t *testing.T) {
		got := base.WithEdit(USD, "2")
		assert.Equal(t, 1.0, got[USD])
	})
}

func TestRateTableWithEditKeepsConversionsFinite(t *testing.T) {
	got := DefaultRates().WithEdit(EUR, "1e-400")
	assert.Equal(t, 0.92, got[EUR])
	assert.False(t, math.IsInf(Convert(10, EUR, USD, got), 0))
}

func TestRateTableApplyEdits(t *testing.T) {
	got := DefaultRates().ApplyEdits(map[Currency]string{
		EUR: "0.9",
		JPY: "not-a-number",
		CAD: "-1",
		USD: "3",
		SGD: "1,4",
	})
	assert.Equal(t, 0.9, got[EUR])
	assert.Equal(t, 150.25, got[JPY])
	assert.Equal(t, 1.35, got[CAD])
	assert.Equal(t, 1.0, got[USD])
	assert.Equal(t, 1.4, got[SGD])
	assert.Len(t, got, len(Currencies()))
}

func TestRateTableRatePanicsOnMissingCurrency(t *testing.T) {
	require.Panics(t, func() { RateTable{USD: 1}.Rate(EUR) })
}

func TestRateTableCodes(t *testing.T) {
	assert.Equal(t, Currencies(), DefaultRates().Codes())
}

func TestRoundRate(t *testing.T) {
	assert.Equal(t, 1.087, RoundRate(1/0.92))
	assert.Equal(t, 0.0067, RoundRate(1/150.25))
	assert.Equal(t, 150.25, RoundRate(150.25))
}

func TestFormatAmount(t *testing.T) {
	cases := map[float64]string{
		0:           "0.00",
		54.347826:   "54.35",
		1234567.891: "1,234,567.89",
		999.999:     "1,000.00",
		-1500:       "-1,500.00",
		100:         "100.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatAmount(in), "FormatAmount(%v)", in)
	}
}
