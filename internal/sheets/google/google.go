// Package google mirrors exported reports into a Google spreadsheet, one tab
// per report.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"receipts/internal/core"
	ports "receipts/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ ports.ReportWriter = (*Client)(nil)

// New creates a Sheets client for one spreadsheet.
func New(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// WriteReport writes the report table into the tab named title, creating the
// tab when missing and clearing it otherwise.
func (c *Client) WriteReport(ctx context.Context, title string, r core.Report) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.New("empty sheet title")
	}

	exists, err := c.hasSheet(ctx, title)
	if err != nil {
		return "", err
	}
	if exists {
		_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoteSheet(title), &gsheet.ClearValuesRequest{}).
			Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("clear sheet %s: %w", title, err)
		}
	} else if err := c.addSheet(ctx, title); err != nil {
		return "", err
	}

	rng := quoteSheet(title) + "!A1"
	vr := &gsheet.ValueRange{Values: r.Table()}
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Report mirrored to Google Sheets",
		"sheet", title,
		"range", resp.UpdatedRange,
		"rows", resp.UpdatedRows,
		"replaced", exists)
	return resp.UpdatedRange, nil
}

func (c *Client) hasSheet(ctx context.Context, title string) (bool, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) addSheet(ctx context.Context, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	return nil
}

// quoteSheet quotes a sheet title for use in A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
