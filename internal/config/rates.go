package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"receipts/internal/core"
)

type ratesFile struct {
	Rates map[string]float64 `toml:"rates"`
}

// LoadRatesFile reads a TOML seed of the form
//
//	[rates]
//	EUR = 0.92
//	JPY = 150.25
//
// on top of the default table. Every entry goes through the same gate as
// user edits; unknown codes, non-positive values and a base rate other
// than 1 are rejected.
func LoadRatesFile(path string) (core.RateTable, error) {
	var f ratesFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("decode rates file %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("Ignoring unknown key in rates file", "path", path, "key", key.String())
	}
	return ratesFromMap(f.Rates)
}

func ratesFromMap(in map[string]float64) (core.RateTable, error) {
	var problems []string
	edits := make(map[core.Currency]string, len(in))

	for code, v := range in {
		c, err := core.ParseCurrency(code)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", code, err))
			continue
		}
		raw := strconv.FormatFloat(v, 'f', -1, 64)
		if _, err := core.ParseRate(raw); err != nil {
			problems = append(problems, fmt.Sprintf("%s = %s: %v", code, raw, err))
			continue
		}
		if c == core.BaseCurrency {
			if v != 1 {
				problems = append(problems, fmt.Sprintf("%s = %s: base rate is fixed at 1", code, raw))
			}
			continue
		}
		edits[c] = raw
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidRate, strings.Join(problems, "; "))
	}
	return core.DefaultRates().ApplyEdits(edits), nil
}
