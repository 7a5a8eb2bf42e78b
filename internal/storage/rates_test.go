package storage

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"receipts/internal/core"
)

func TestRateStoreResetRestoresDefaults(t *testing.T) {
	s := NewRateStore()
	s.ReplaceAll(s.Current().ApplyEdits(map[core.Currency]string{
		core.EUR: "1.5",
		core.JPY: "99",
	}))
	assert.Equal(t, 1.5, s.Current()[core.EUR])

	s.Reset()
	assert.Equal(t, core.DefaultRates(), s.Current())
}

func TestRateStoreCopies(t *testing.T) {
	s := NewRateStore()

	in := core.DefaultRates()
	s.ReplaceAll(in)
	in[core.GBP] = 42
	assert.Equal(t, 0.79, s.Current()[core.GBP], "ReplaceAll keeps its own copy")

	out := s.Current()
	out[core.GBP] = 42
	assert.Equal(t, 0.79, s.Current()[core.GBP], "Current hands out a copy")
}

func TestRateStoreFromSeed(t *testing.T) {
	seed := core.DefaultRates().WithEdit(core.CAD, "1.4")
	s := NewRateStoreFrom(seed)
	assert.Equal(t, 1.4, s.Current()[core.CAD])

	s.Reset()
	assert.Equal(t, 1.35, s.Current()[core.CAD], "reset ignores the seed")
}

func TestRateStoreRejectedEditKeepsValue(t *testing.T) {
	s := NewRateStore()
	s.ReplaceAll(s.Current().WithEdit(core.EUR, "abc"))
	assert.Equal(t, 0.92, s.Current()[core.EUR])
	s.ReplaceAll(s.Current().WithEdit(core.EUR, "0"))
	assert.Equal(t, 0.92, s.Current()[core.EUR])
}

func TestRateStoreConcurrentUpdatesAreNotLost(t *testing.T) {
	s := NewRateStore()
	codes := []core.Currency{core.EUR, core.GBP, core.JPY, core.CAD, core.AUD, core.CNY, core.SGD, core.HKD}

	for round := 1; round <= 200; round++ {
		var wg sync.WaitGroup
		for _, c := range codes {
			wg.Add(1)
			go func(c core.Currency) {
				defer wg.Done()
				s.Update(func(t core.RateTable) core.RateTable {
					return t.WithEdit(c, strconv.Itoa(round))
				})
			}(c)
		}
		wg.Wait()

		got := s.Current()
		for _, c := range codes {
			if got[c] != float64(round) {
				t.Fatalf("round %d: %s = %v, edit lost", round, c, got[c])
			}
		}
	}
}

func TestRateStoreUpdateReturnsCopy(t *testing.T) {
	s := NewRateStore()
	out := s.Update(func(t core.RateTable) core.RateTable { return t.WithEdit(core.EUR, "0.5") })
	assert.Equal(t, 0.5, out[core.EUR])

	out[core.EUR] = 42
	assert.Equal(t, 0.5, s.Current()[core.EUR])
}
