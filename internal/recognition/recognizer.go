// Package recognition extracts receipt fields from uploaded images and PDFs.
package recognition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"receipts/internal/core"
)

// Recognizer turns receipt bytes into an extraction record.
type Recognizer interface {
	Recognize(ctx context.Context, data []byte, mimeType string) (core.Extraction, error)
}

// ErrDisabled is returned by Disabled.
var ErrDisabled = errors.New("recognition is not configured")

// Disabled is used when no recognition backend is configured. Every call
// fails as an extraction failure.
type Disabled struct{}

func (Disabled) Recognize(context.Context, []byte, string) (core.Extraction, error) {
	return core.Extraction{}, fmt.Errorf("%w: %w", core.ErrExtractionFailed, ErrDisabled)
}

// DecodeExtraction parses the JSON document returned by the model. Empty or
// malformed output is an extraction failure.
func DecodeExtraction(text string) (core.Extraction, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" || text == "null" {
		return core.Extraction{}, fmt.Errorf("empty response: %w", core.ErrExtractionFailed)
	}

	var ex core.Extraction
	if err := json.Unmarshal([]byte(text), &ex); err != nil {
		return core.Extraction{}, fmt.Errorf("decode response: %w: %w", core.ErrExtractionFailed, err)
	}
	return ex, nil
}
