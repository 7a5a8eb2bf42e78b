package core

// Convert converts amount from one currency to another by pivoting through
// BaseCurrency. Same-currency conversion returns amount untouched.
func Convert(amount float64, from, to Currency, rates RateTable) float64 {
	if from == to {
		return amount
	}
	inBase := amount / rates.Rate(from)
	return inBase * rates.Rate(to)
}

// EffectiveRate returns how many units of to one unit of from buys. It is only
// used for the audit column of reports and is exactly 1 for identical
// currencies.
func EffectiveRate(from, to Currency, rates RateTable) float64 {
	if from == to {
		return 1
	}
	return rates.Rate(to) / rates.Rate(from)
}
