package http

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"receipts/internal/core"
	applog "receipts/internal/log"
	"receipts/internal/services"
)

// uploadField is the multipart field carrying the receipt file.
const uploadField = "receipt"

// acceptedMime reports whether a receipt of this media type can be sent to
// recognition.
func acceptedMime(mime string) bool {
	return strings.HasPrefix(mime, "image/") || mime == "application/pdf"
}

// handleUploadReceipt recognizes an uploaded receipt and records it.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentReceipts)

	if r.ContentLength > s.maxUpload {
		ErrorResponse(http.StatusRequestEntityTooLarge, "Receipt file is too large").Write(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "Receipt file is too large").Write(w)
			return
		}
		BadRequestError("Invalid upload").Write(w)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		BadRequestError("Missing receipt file").Write(w)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		BadRequestError("Invalid upload").Write(w)
		return
	}
	if len(data) == 0 {
		UnprocessableEntityError("Receipt file is empty").Write(w)
		return
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	mime, _, _ = strings.Cut(mime, ";")
	if !acceptedMime(mime) {
		ErrorResponse(http.StatusUnsupportedMediaType, "Unsupported file type: upload an image or PDF").Write(w)
		return
	}

	inv, err := s.svc.AddReceipt(ctx, services.Upload{
		Data:     data,
		MimeType: mime,
		FileName: filepath.Base(sanitizeInput(header.Filename)),
	})
	if err != nil {
		s.appMetrics.extractionFailures.Add(1)
		logger.WarnContext(ctx, "Receipt recognition failed",
			applog.FieldFileName, header.Filename,
			"mime_type", mime,
			"size", len(data),
			applog.FieldError, err)
		UnprocessableEntityError(ExtractionFailedMessage).
			TriggerErrorNotification(ExtractionFailedMessage).
			Write(w)
		return
	}
	s.appMetrics.receiptsRecorded.Add(1)

	invoices := s.svc.Invoices()
	s.writeTemplate(w, r, "invoices", newInvoiceList(invoices),
		NewHTMXResponse().
			TriggerInvoicesChanged(len(invoices)).
			TriggerSuccessNotification("Recorded "+inv.InvoiceNumber+": "+inv.Merchant))
}

// handleInvoices renders the invoice list partial.
func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	s.writeTemplate(w, r, "invoices", newInvoiceList(s.svc.Invoices()), NewHTMXResponse())
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.DeleteInvoice(r.Context(), id); err != nil {
		s.invoiceError(w, r, err, applog.OpDelete)
		return
	}
	applog.FromContext(r.Context()).WithComponent(applog.ComponentReceipts).InfoContext(r.Context(),
		"Invoice deleted", applog.FieldInvoiceID, id)

	invoices := s.svc.Invoices()
	s.writeTemplate(w, r, "invoices", newInvoiceList(invoices),
		NewHTMXResponse().TriggerInvoicesChanged(len(invoices)))
}

func (s *Server) handleSetCategory(w http.ResponseWriter, r *http.Request) {
	s.updateInvoiceField(w, r, "category", s.svc.SetCategory)
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	s.updateInvoiceField(w, r, "currency", s.svc.SetCurrency)
}

// updateInvoiceField applies a single-field correction read from the form
// or JSON body.
func (s *Server) updateInvoiceField(w http.ResponseWriter, r *http.Request, field string, apply func(context.Context, string, string) (core.Invoice, error)) {
	p, fail := parseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	raw := p.Get(field)
	if raw == "" {
		UnprocessableEntityError("Missing " + field).Write(w)
		return
	}

	inv, err := apply(r.Context(), r.PathValue("id"), raw)
	if err != nil {
		s.invoiceError(w, r, err, applog.OpUpdate)
		return
	}
	applog.FromContext(r.Context()).WithComponent(applog.ComponentReceipts).InfoContext(r.Context(),
		"Invoice updated",
		applog.FieldInvoiceID, inv.ID,
		applog.FieldInvoiceNumber, inv.InvoiceNumber,
		field, raw)

	invoices := s.svc.Invoices()
	s.writeTemplate(w, r, "invoices", newInvoiceList(invoices),
		NewHTMXResponse().TriggerInvoicesChanged(len(invoices)))
}

// invoiceError maps service errors to responses.
func (s *Server) invoiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, core.ErrInvoiceNotFound):
		NotFoundError("Invoice not found").Write(w)
	case errors.Is(err, core.ErrUnknownCategory):
		UnprocessableEntityError("Unknown category").Write(w)
	case errors.Is(err, core.ErrUnknownCurrency):
		UnprocessableEntityError("Unknown currency").Write(w)
	default:
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(),
			"Invoice operation failed", err, applog.ComponentReceipts, op,
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "", ""))
		InternalServerError("Error updating invoice").Write(w)
	}
}
