package sequence

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
)

// Mock objects

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences row: INSERT seeds at start+1,
// conflicting increments add 1, SELECT reads without mutating.
type mockQuerier struct {
	mu     sync.Mutex
	val    int64
	exists bool
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := int64(0)
	if len(args) == 2 {
		if v, ok := args[1].(int64); ok {
			start = v
		}
	}

	if strings.Contains(sql, "INSERT") {
		if !m.exists {
			m.exists = true
			m.val = start + 1
		} else {
			m.val++
		}
		return &mockRow{val: m.val}
	}

	// Read-only peek path.
	current := start
	if m.exists {
		current = m.val
	}
	return &mockRow{val: current + 1}
}

func TestNextStartsAt101(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()

	num, err := svc.Next(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "RP-101" {
		t.Errorf("expected RP-101, got %s", num)
	}

	num, err = svc.Next(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "RP-102" {
		t.Errorf("expected RP-102, got %s", num)
	}
}

func TestPeekDoesNotAdvance(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()

	// Peek before any official sale: lazily seeded counter reads 100.
	num, err := svc.Peek(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "RP-101" {
		t.Errorf("expected peek RP-101, got %s", num)
	}

	// Repeated peeks keep showing the same number.
	num, _ = svc.Peek(ctx)
	if num != "RP-101" {
		t.Errorf("expected repeated peek RP-101, got %s", num)
	}

	// The real increment hands out what the peek promised.
	num, _ = svc.Next(ctx)
	if num != "RP-101" {
		t.Errorf("expected next RP-101 after peeks, got %s", num)
	}

	num, _ = svc.Peek(ctx)
	if num != "RP-102" {
		t.Errorf("expected peek RP-102 after one official sale, got %s", num)
	}
}

func TestParseNumber(t *testing.T) {
	if got := ParseNumber("RP-101"); got != 101 {
		t.Errorf("expected 101, got %d", got)
	}
	if got := ParseNumber("CS-1700000000"); got != -1 {
		t.Errorf("expected -1 for non-official number, got %d", got)
	}
}
