package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"receipts/internal/core"
)

const DefaultModel = "gemini-2.5-flash"

// Gemini recognizes receipts with a Gemini model constrained by a JSON
// response schema.
type Gemini struct {
	models  *genai.Models
	model   string
	timeout time.Duration
	now     func() time.Time
}

// NewGemini creates a client for the Gemini API.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Gemini{
		models:  client.Models,
		model:   model,
		timeout: timeout,
		now:     time.Now,
	}, nil
}

// Recognize sends the receipt inline with the extraction prompt.
func (g *Gemini) Recognize(ctx context.Context, data []byte, mimeType string) (core.Extraction, error) {
	if len(data) == 0 {
		return core.Extraction{}, fmt.Errorf("empty upload: %w", core.ErrExtractionFailed)
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(Prompt(g.now().Year())),
		}, genai.RoleUser),
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   ExtractionSchema(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "Receipt recognition failed",
			"model", g.model,
			"mime_type", mimeType,
			"bytes", len(data),
			"error", err)
		return core.Extraction{}, fmt.Errorf("generate content: %w: %w", core.ErrExtractionFailed, err)
	}

	slog.InfoContext(ctx, "Receipt recognized",
		"model", g.model,
		"mime_type", mimeType,
		"duration_ms", time.Since(start).Milliseconds())

	return DecodeExtraction(resp.Text())
}

// Prompt is the instruction sent along with every receipt.
func Prompt(year int) string {
	codes := make([]string, 0, len(core.Currencies()))
	for _, c := range core.Currencies() {
		codes = append(codes, string(c))
	}
	cats := make([]string, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		if c != core.Unclassified {
			cats = append(cats, "'"+string(c)+"'")
		}
	}

	var b strings.Builder
	b.WriteString("Analyze this receipt file (image or PDF).\n")
	b.WriteString("Extract the following information:\n")
	fmt.Fprintf(&b, "1. Date of the transaction (format YYYY-MM-DD). If the year is missing, assume %d.\n", year)
	b.WriteString("2. Total amount (numerical value).\n")
	fmt.Fprintf(&b, "3. Currency as an ISO 4217 code. Common codes: %s.\n", strings.Join(codes, ", "))
	b.WriteString("   '$' usually implies USD unless the address or context implies CAD, AUD, SGD or HKD.\n")
	b.WriteString("   'S$' is Singapore Dollar. 'HK$' is Hong Kong Dollar.\n")
	b.WriteString("4. Merchant name.\n")
	fmt.Fprintf(&b, "5. Category. Must be one of: %s, based on the items and merchant.\n", strings.Join(cats, ", "))
	b.WriteString("If the file is not a receipt or the text is unreadable, give a best guess with category Unknown.\n")
	return b.String()
}

// ExtractionSchema restricts the model output to the supported currencies and
// categories.
func ExtractionSchema() *genai.Schema {
	currencies := make([]string, 0, len(core.Currencies()))
	for _, c := range core.Currencies() {
		currencies = append(currencies, string(c))
	}
	categories := make([]string, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		categories = append(categories, string(c))
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"date":     {Type: genai.TypeString, Description: "The date in YYYY-MM-DD format"},
			"amount":   {Type: genai.TypeNumber, Description: "The total cost"},
			"currency": {Type: genai.TypeString, Enum: currencies, Description: "The currency code"},
			"merchant": {Type: genai.TypeString, Description: "Name of the vendor"},
			"category": {Type: genai.TypeString, Enum: categories, Description: "The expense category"},
		},
		Required: []string{"date", "amount", "currency", "category", "merchant"},
	}
}
