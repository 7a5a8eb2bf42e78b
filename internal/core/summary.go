package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   float64
}

// Summary is the aggregate spend of an invoice list in a reporting currency.
// Total covers every invoice; ByCategory leaves out unclassified invoices and
// categories that sum to zero, so it may add up to less than Total.
type Summary struct {
	Currency   Currency
	Total      float64
	Count      int
	ByCategory []CategoryAmount
}

// Summarize aggregates invoices into the reporting currency. It returns false
// when there are no invoices at all, which callers must keep apart from a
// summary whose total is zero.
func Summarize(invoices []Invoice, reporting Currency, rates RateTable) (Summary, bool) {
	if len(invoices) == 0 {
		return Summary{}, false
	}

	sums := make(map[Category]float64, len(categories))
	for _, inv := range invoices {
		sums[inv.Category] += Convert(inv.Amount, inv.Currency, reporting, rates)
	}

	s := Summary{
		Currency: reporting,
		Total:    GrandTotal(invoices, reporting, rates),
		Count:    len(invoices),
	}
	for _, c := range categories {
		if c == Unclassified {
			continue
		}
		if v := sums[c]; v != 0 {
			s.ByCategory = append(s.ByCategory, CategoryAmount{Category: c, Amount: v})
		}
	}
	return s, true
}

// GrandTotal sums every invoice converted into the reporting currency,
// regardless of category.
func GrandTotal(invoices []Invoice, reporting Currency, rates RateTable) float64 {
	var total float64
	for _, inv := range invoices {
		total += Convert(inv.Amount, inv.Currency, reporting, rates)
	}
	return total
}

// Largest returns the breakdown entry with the highest amount.
func (s Summary) Largest() (CategoryAmount, bool) {
	if len(s.ByCategory) == 0 {
		return CategoryAmount{}, false
	}
	best := s.ByCategory[0]
	for _, c := range s.ByCategory[1:] {
		if c.Amount > best.Amount {
			best = c
		}
	}
	return best, true
}
