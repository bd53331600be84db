// Package sequence provides the official invoice number sequence.
// Official (billed) sales draw gapless RP- numbers from a single database
// counter; unbilled, dose, manual, and return identifiers never touch it.
package sequence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const (
	// invoiceKey is the single named counter in sys_sequences.
	invoiceKey = "invoice_seq"

	// OfficialPrefix marks billed sales.
	OfficialPrefix = "RP"

	// seed is the counter value before the first official sale,
	// so the first real invoice is RP-101.
	seed = 100
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service produces official invoice numbers.
type Service struct {
	querier Querier
}

// New creates a new sequence service.
func New(querier Querier) *Service {
	return &Service{querier: querier}
}

// Next atomically increments the counter and returns the formatted number.
// The increment is a single UPSERT with RETURNING, so concurrent callers can
// never observe the same value; the counter is lazily seeded at 100 on first use.
func (s *Service) Next(ctx context.Context) (string, error) {
	var num int64
	err := s.querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (key, current_val)
        VALUES ($1, $2 + 1)
        ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
        RETURNING current_val
	`, invoiceKey, int64(seed)).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return Format(num), nil
}

// Peek returns the number the next official sale would receive without
// reserving it. Two concurrent previews may show the same value; the preview
// is display-only and Next remains the sole source of identity.
func (s *Service) Peek(ctx context.Context) (string, error) {
	var num int64
	err := s.querier.QueryRow(ctx, `
        SELECT COALESCE(
            (SELECT current_val FROM sys_sequences WHERE key = $1),
            $2::bigint
        ) + 1
	`, invoiceKey, int64(seed)).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("peek invoice number: %w", err)
	}
	return Format(num), nil
}

// Format renders a counter value as an official invoice number.
func Format(num int64) string {
	return fmt.Sprintf("%s-%d", OfficialPrefix, num)
}

// ParseNumber extracts the numeric part from a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	var num int64
	if _, err := fmt.Sscanf(formatted, OfficialPrefix+"-%d", &num); err != nil {
		return -1
	}
	return num
}
