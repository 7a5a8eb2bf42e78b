package log

import "receipts/internal/core"

// Common field names for structured logging
const (
	FieldComponent         = "component"
	FieldRequestID         = "request_id"
	FieldClientIP          = "client_ip"
	FieldMethod            = "method"
	FieldPath              = "path"
	FieldQuery             = "query"
	FieldStatusCode        = "status_code"
	FieldDuration          = "duration_ms"
	FieldUserAgent         = "user_agent"
	FieldReferer           = "referer"
	FieldSuccess           = "success"
	FieldError             = "error"
	FieldOperation         = "operation"
	FieldInvoiceID         = "invoice_id"
	FieldInvoiceNumber     = "invoice_number"
	FieldAmount            = "amount"
	FieldCurrency          = "currency"
	FieldCategory          = "category"
	FieldMerchant          = "merchant"
	FieldReportingCurrency = "reporting_currency"
	FieldFileName          = "file_name"
	FieldRows              = "rows"
	FieldTotal             = "total"
	FieldSheetsRef         = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentReceipts    = "receipts"
	ComponentRecognition = "recognition"
	ComponentRates       = "rates"
	ComponentExport      = "export"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentSheets      = "sheets"
	ComponentCache       = "cache"
	ComponentSecurity    = "security"
	ComponentRateLimit   = "rate_limit"
	ComponentTemplate    = "template"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpRecognize = "recognize"
	OpExport    = "export"
	OpMirror    = "mirror"
	OpReset     = "reset"
	OpRender    = "render"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error text; nil errors add nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithInvoice adds the identifying and monetary fields of an invoice
func (f LogFields) WithInvoice(inv core.Invoice) LogFields {
	f[FieldInvoiceID] = inv.ID
	f[FieldInvoiceNumber] = inv.InvoiceNumber
	f[FieldAmount] = inv.Amount
	f[FieldCurrency] = string(inv.Currency)
	f[FieldCategory] = string(inv.Category)
	f[FieldMerchant] = inv.Merchant
	return f
}

// WithReport adds report summary fields
func (f LogFields) WithReport(fileName string, r core.Report) LogFields {
	f[FieldFileName] = fileName
	f[FieldReportingCurrency] = string(r.Currency)
	f[FieldRows] = len(r.Rows)
	f[FieldTotal] = r.Total
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog. The component field is
// left to the Logger so it is not emitted twice.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		if k == FieldComponent {
			continue
		}
		slice = append(slice, k, v)
	}
	return slice
}
