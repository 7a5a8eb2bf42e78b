package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"receipts/internal/core"
)

var errTemplatesNotLoaded = errors.New("templates not loaded")

type invoiceView struct {
	core.Invoice
	AmountText string
}

type categoryRow struct {
	Name   string
	Amount string
	Width  int
}

type summaryView struct {
	Empty    bool
	Currency core.Currency
	Symbol   string
	Total    string
	Count    int
	Largest  string
	Rows     []categoryRow
}

type rateRow struct {
	Code  core.Currency
	Value string
	Base  bool
}

type pageData struct {
	Reporting  core.Currency
	Currencies []core.Currency
	Categories []core.Category
	Invoices   invoiceListView
	Summary    summaryView
	Rates      []rateRow
}

type invoiceListView struct {
	Items      []invoiceView
	Currencies []core.Currency
	Categories []core.Category
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// currencyParam reads an optional currency from the query string. Invalid or
// missing values yield the empty currency, which the service resolves to the
// reporting one.
func currencyParam(r *http.Request) core.Currency {
	c, err := core.ParseCurrency(r.URL.Query().Get("currency"))
	if err != nil {
		return ""
	}
	return c
}

func formatMoney(c core.Currency, v float64) string {
	return c.Symbol() + core.FormatAmount(v)
}

func newInvoiceList(invoices []core.Invoice) invoiceListView {
	items := make([]invoiceView, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, invoiceView{Invoice: inv, AmountText: formatMoney(inv.Currency, inv.Amount)})
	}
	return invoiceListView{
		Items:      items,
		Currencies: core.Currencies(),
		Categories: core.Categories(),
	}
}

// newSummaryView lays out the category breakdown with bar widths scaled to
// the largest category.
func newSummaryView(s core.Summary, ok bool) summaryView {
	if !ok {
		return summaryView{Empty: true}
	}
	v := summaryView{
		Currency: s.Currency,
		Symbol:   s.Currency.Symbol(),
		Total:    core.FormatAmount(s.Total),
		Count:    s.Count,
	}

	largest, hasLargest := s.Largest()
	if hasLargest {
		v.Largest = string(largest.Category)
	}
	for _, ca := range s.ByCategory {
		width := 0
		if hasLargest && largest.Amount > 0 && ca.Amount > 0 {
			width = int(ca.Amount/largest.Amount*100 + 0.5)
			// keep very small values visible
			if width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		v.Rows = append(v.Rows, categoryRow{
			Name:   string(ca.Category),
			Amount: formatMoney(s.Currency, ca.Amount),
			Width:  width,
		})
	}
	return v
}

func newRateRows(rates core.RateTable) []rateRow {
	rows := make([]rateRow, 0, len(rates))
	for _, c := range rates.Codes() {
		rows = append(rows, rateRow{
			Code:  c,
			Value: strconv.FormatFloat(rates.Rate(c), 'f', -1, 64),
			Base:  c == core.BaseCurrency,
		})
	}
	return rows
}

// render executes a named template into a buffer so a failing template never
// produces a half-written response.
func (s *Server) render(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesNotLoaded
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
