// Package memory is an in-process report mirror used for dry runs and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"receipts/internal/core"
	ports "receipts/internal/sheets"
)

var _ ports.ReportWriter = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	order  []string
	tables map[string][][]any
}

func New() *Store {
	return &Store{tables: make(map[string][][]any)}
}

// WriteReport stores the report table under title, replacing an earlier
// write with the same title.
func (s *Store) WriteReport(_ context.Context, title string, r core.Report) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.New("empty sheet title")
	}
	table := r.Table()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[title]; !ok {
		s.order = append(s.order, title)
	}
	s.tables[title] = table
	return fmt.Sprintf("mem:%s!A1:I%d", title, len(table)), nil
}

// Table returns the rows last written under title.
func (s *Store) Table(title string) ([][]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[title]
	return t, ok
}

// Titles lists written tabs in first-write order.
func (s *Store) Titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}
