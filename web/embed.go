// Package web embeds the receipts UI: index.html plus the "summary",
// "invoices" and "rates" partials, and the static assets they load.
package web

import "embed"

//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
