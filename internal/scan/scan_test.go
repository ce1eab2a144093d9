package scan

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uniformhub/api/internal/database"
)

func order(number string) database.Order {
	return database.Order{ID: uuid.New(), OrderNumber: number}
}

func TestResolve_ExactOrderNumber(t *testing.T) {
	target := order("ORDR2608280042")
	snapshot := []database.Order{order("ORDR2608280007"), target, order("ORDR2608280100")}

	got, ok := Resolve("ORDR2608280042", snapshot)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.ID != target.ID {
		t.Errorf("got %v, want %v", got.OrderNumber, target.OrderNumber)
	}
}

func TestResolve_ExactRecordID(t *testing.T) {
	target := order("ORDR2608280042")
	snapshot := []database.Order{order("ORDR2608280007"), target}

	got, ok := Resolve(target.ID.String(), snapshot)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.ID != target.ID {
		t.Errorf("got %v, want %v", got.ID, target.ID)
	}
}

// Exact order-number match must win even when an earlier order's identifier
// would match as a substring.
func TestResolve_ExactBeatsSubstring(t *testing.T) {
	partial := order("ORDR26082800")
	exact := order("ORDR2608280042")
	snapshot := []database.Order{partial, exact}

	got, ok := Resolve("ORDR2608280042", snapshot)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.ID != exact.ID {
		t.Errorf("exact match lost to substring: got %v", got.OrderNumber)
	}
}

func TestResolve_TruncatedScan(t *testing.T) {
	target := order("ORDR2608280042")
	snapshot := []database.Order{target}

	got, ok := Resolve("ORDR260828", snapshot)
	if !ok {
		t.Fatal("expected a truncated scan to match")
	}
	if got.ID != target.ID {
		t.Errorf("got %v, want %v", got.OrderNumber, target.OrderNumber)
	}
}

func TestResolve_FramingNoise(t *testing.T) {
	target := order("ORDR2608280042")
	snapshot := []database.Order{target}

	got, ok := Resolve("]Q1ORDR2608280042#", snapshot)
	if !ok {
		t.Fatal("expected a noisy scan to match")
	}
	if got.ID != target.ID {
		t.Errorf("got %v, want %v", got.OrderNumber, target.OrderNumber)
	}
}

// Legacy records carry separators the canonical format never had; the
// resolver still finds them by substring.
func TestResolve_LegacyOrderNumber(t *testing.T) {
	legacy := order("ORDR250101@1234")
	snapshot := []database.Order{legacy}

	got, ok := Resolve("ORDR250101@1234", snapshot)
	if !ok {
		t.Fatal("expected legacy number to match")
	}
	if got.ID != legacy.ID {
		t.Errorf("got %v, want %v", got.OrderNumber, legacy.OrderNumber)
	}
}

func TestResolve_FirstHitInSnapshotOrder(t *testing.T) {
	first := order("ORDR2608280010")
	second := order("ORDR2608280011")
	snapshot := []database.Order{first, second}

	got, ok := Resolve("ORDR260828001", snapshot)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.ID != first.ID {
		t.Errorf("got %v, want first snapshot entry %v", got.OrderNumber, first.OrderNumber)
	}
}

func TestResolve_NoMatch(t *testing.T) {
	snapshot := []database.Order{order("ORDR2608280042")}

	if _, ok := Resolve("XYZZY", snapshot); ok {
		t.Error("expected no match")
	}
}

func TestResolve_EmptyCode(t *testing.T) {
	snapshot := []database.Order{order("ORDR2608280042")}

	if _, ok := Resolve("   ", snapshot); ok {
		t.Error("whitespace code must not match")
	}
}

// --- Buffer ---

func typeCode(b *Buffer, code string) {
	for _, r := range code {
		b.Key(r)
	}
}

func TestBuffer_CollectsBurst(t *testing.T) {
	b := NewBuffer()
	typeCode(b, "ORDR2608280042")

	if got := b.Enter(); got != "ORDR2608280042" {
		t.Errorf("got %q, want ORDR2608280042", got)
	}
}

func TestBuffer_EnterClears(t *testing.T) {
	b := NewBuffer()
	typeCode(b, "ABC")
	b.Enter()

	if got := b.Enter(); got != "" {
		t.Errorf("second Enter: got %q, want empty", got)
	}
}

func TestBuffer_StalePartialDiscarded(t *testing.T) {
	current := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	b := NewBufferWithClock(func() time.Time { return current })

	typeCode(b, "ORDR26")
	current = current.Add(3 * time.Second)
	typeCode(b, "ORDR2608280042")

	if got := b.Enter(); got != "ORDR2608280042" {
		t.Errorf("got %q, want the fresh burst only", got)
	}
}

func TestBuffer_StaleAtEnterYieldsNothing(t *testing.T) {
	current := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	b := NewBufferWithClock(func() time.Time { return current })

	typeCode(b, "ORDR2608280042")
	current = current.Add(5 * time.Second)

	if got := b.Enter(); got != "" {
		t.Errorf("got %q, want empty for a stalled burst", got)
	}
}

func TestBuffer_FastBurstWithinTimeout(t *testing.T) {
	current := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	b := NewBufferWithClock(func() time.Time { return current })

	for _, r := range "ORDR2608280042" {
		b.Key(r)
		current = current.Add(30 * time.Millisecond)
	}

	if got := b.Enter(); got != "ORDR2608280042" {
		t.Errorf("got %q, want ORDR2608280042", got)
	}
}
