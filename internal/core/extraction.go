package core

import (
	"fmt"
	"math"
	"strings"
)

// UnknownMerchant is recorded when recognition returns no merchant name.
const UnknownMerchant = "UNKNOWN_ENTITY"

// Fields turns a recognition result into invoice fields. Missing or invalid
// dates fall back to today, unknown currencies to fallback and unknown
// categories to Unclassified. A negative or non-finite amount means the
// recognizer broke its contract and is reported as ErrExtractionFailed.
func (e Extraction) Fields(fallback Currency, today string) (InvoiceFields, error) {
	if e.Amount < 0 || math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) {
		return InvoiceFields{}, fmt.Errorf("amount %v: %w", e.Amount, ErrExtractionFailed)
	}

	date := strings.TrimSpace(e.Date)
	if !ValidDate(date) {
		date = today
	}

	currency, err := ParseCurrency(e.Currency)
	if err != nil {
		currency = fallback
	}

	category, err := ParseCategory(e.Category)
	if err != nil {
		category = Unclassified
	}

	merchant := strings.TrimSpace(e.Merchant)
	if merchant == "" {
		merchant = UnknownMerchant
	}

	return InvoiceFields{
		Date:     date,
		Amount:   e.Amount,
		Currency: currency,
		Category: category,
		Merchant: merchant,
	}, nil
}
