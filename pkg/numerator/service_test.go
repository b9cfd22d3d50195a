package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "shopledger/internal/core/numerator"
)

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

// mockQuerier simulates sys_sequences for a single key.
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
	lastKey      string
	err          error
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}
	m.lastKey, _ = args[0].(string)

	switch {
	case strings.Contains(sql, "current_val = $2\n"):
		m.currentValue = args[1].(int64)
	case len(args) == 2:
		m.currentValue += args[1].(int64)
	default:
		m.currentValue++
	}
	return &mockRow{val: m.currentValue}
}

var period = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixSale)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "SL-2026-00001" {
		t.Errorf("expected SL-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "SL-2026-00002" {
		t.Errorf("expected SL-2026-00002, got %s", num)
	}
	if q.lastKey != "SL_2026" {
		t.Errorf("expected key SL_2026, got %s", q.lastKey)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixPayment)
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PM-2026-00001" {
		t.Errorf("expected PM-2026-00001, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected DB value to be 10, got %d", q.currentValue)
	}

	// served from memory
	for i := 0; i < 9; i++ {
		_, _ = svc.GetNextNumber(ctx, cfg, opts, period)
	}
	if q.calls != 1 {
		t.Errorf("expected a single DB round trip, got %d", q.calls)
	}

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PM-2026-00011" {
		t.Errorf("expected PM-2026-00011, got %s", num)
	}
	if q.currentValue != 20 {
		t.Errorf("expected DB value to be 20, got %d", q.currentValue)
	}
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixExpense)
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	_, _ = svc.GetNextNumber(ctx, cfg, opts, period)

	if err := svc.SetNextNumber(ctx, cfg, period, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "EX-2026-00101" {
		t.Errorf("expected EX-2026-00101, got %s", num)
	}
}

func TestGetNextNumber_PropagatesError(t *testing.T) {
	q := &mockQuerier{err: errors.New("connection reset")}
	svc := New(q)

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("X"), nil, period)
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}
