package core

import (
	"errors"
	"strings"
	"time"
)

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CAD Currency = "CAD"
	AUD Currency = "AUD"
	CNY Currency = "CNY"
	SGD Currency = "SGD"
	HKD Currency = "HKD"

	// BaseCurrency is the pivot every rate is expressed against.
	BaseCurrency = USD
)

const (
	Transport     Category = "Transport"
	Flight        Category = "Flight"
	Accommodation Category = "Accommodation"
	Meal          Category = "Meal"
	Incidental    Category = "Incidental"
	// Unclassified marks receipts whose category could not be determined.
	Unclassified Category = "Unknown"
)

// DateLayout is the calendar date format used for invoice dates.
const DateLayout = "2006-01-02"

type (
	Currency string

	Category string

	// Invoice is a recognized receipt. Amount is always denominated in the
	// invoice's current Currency.
	Invoice struct {
		ID            string
		InvoiceNumber string
		Date          string
		Amount        float64
		Currency      Currency
		Category      Category
		Merchant      string
		ImageURL      string // display only
		FileName      string // display only
	}

	// InvoiceFields holds everything needed to create an invoice except the
	// identity fields, which the invoice book assigns.
	InvoiceFields struct {
		Date     string
		Amount   float64
		Currency Currency
		Category Category
		Merchant string
		ImageURL string
		FileName string
	}

	// Extraction is the record produced by the recognition collaborator.
	Extraction struct {
		Date     string  `json:"date"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
		Category string  `json:"category"`
		Merchant string  `json:"merchant"`
	}
)

var (
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrInvalidRate      = errors.New("invalid rate")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrExtractionFailed = errors.New("failed to decode receipt data")
)

var currencies = []Currency{USD, EUR, GBP, JPY, CAD, AUD, CNY, SGD, HKD}

var categories = []Category{Transport, Flight, Accommodation, Meal, Incidental, Unclassified}

// Currencies returns the supported currencies in display order.
func Currencies() []Currency {
	return append([]Currency(nil), currencies...)
}

// Categories returns every category, the unclassified one last.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

func (c Currency) String() string { return string(c) }

// Valid reports whether c is one of the nine supported currencies.
func (c Currency) Valid() bool {
	for _, v := range currencies {
		if v == c {
			return true
		}
	}
	return false
}

// ParseCurrency accepts a currency code in any case, ignoring surrounding spaces.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrUnknownCurrency
	}
	return c, nil
}

func (c Category) String() string { return string(c) }

func (c Category) Valid() bool {
	for _, v := range categories {
		if v == c {
			return true
		}
	}
	return false
}

// ParseCategory matches category names case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, v := range categories {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", ErrUnknownCategory
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func (f InvoiceFields) Validate() error {
	if f.Amount < 0 || f.Amount != f.Amount {
		return ErrInvalidAmount
	}
	if !f.Currency.Valid() {
		return ErrUnknownCurrency
	}
	if !f.Category.Valid() {
		return ErrUnknownCategory
	}
	return nil
}
