package amqp

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"receipts/internal/core"
)

// ReportExportedMessage carries a complete exported report so the mirror
// worker needs no access to the server's in-memory ledger.
type ReportExportedMessage struct {
	ID          string        `json:"id"`
	FileName    string        `json:"file_name"`
	Currency    core.Currency `json:"currency"`
	GeneratedAt time.Time     `json:"generated_at"`
	Report      core.Report   `json:"report"`
}

// NewReportExportedMessage creates a message for a freshly exported report.
func NewReportExportedMessage(fileName string, r core.Report) *ReportExportedMessage {
	return &ReportExportedMessage{
		ID:          uuid.NewString(),
		FileName:    fileName,
		Currency:    r.Currency,
		GeneratedAt: time.Now().UTC(),
		Report:      r,
	}
}

// SheetTitle is the file name without its extension.
func (m *ReportExportedMessage) SheetTitle() string {
	return strings.TrimSuffix(m.FileName, filepath.Ext(m.FileName))
}

// ToJSON converts the message to JSON bytes
func (m *ReportExportedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportExportedMessageFromJSON decodes and sanity checks a message body.
func ReportExportedMessageFromJSON(data []byte) (*ReportExportedMessage, error) {
	var msg ReportExportedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.FileName == "" {
		return nil, fmt.Errorf("message %q has no file name", msg.ID)
	}
	if !msg.Currency.Valid() {
		return nil, fmt.Errorf("message %q: %w", msg.ID, core.ErrUnknownCurrency)
	}
	return &msg, nil
}
