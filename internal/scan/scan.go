// Package scan resolves codes captured from a keyboard-wedge QR/barcode
// scanner to orders. The scanner types the code as a burst of keystrokes and
// presses Enter; there is no device API to talk to.
package scan

import (
	"strings"
	"time"

	"github.com/uniformhub/api/internal/database"
)

// IdleTimeout clears a partial buffer when the keystroke burst stalls, so a
// half-typed code from an aborted scan never contaminates the next one.
const IdleTimeout = 2 * time.Second

// Buffer accumulates scanner keystrokes until Enter. Not safe for concurrent
// use; each scanning station owns one buffer.
type Buffer struct {
	now  func() time.Time
	last time.Time
	buf  strings.Builder
}

// NewBuffer creates a Buffer using the wall clock.
func NewBuffer() *Buffer {
	return &Buffer{now: time.Now}
}

// NewBufferWithClock creates a Buffer with an injected clock for tests.
func NewBufferWithClock(now func() time.Time) *Buffer {
	return &Buffer{now: now}
}

// Key appends one keystroke, discarding any stale partial input first.
func (b *Buffer) Key(r rune) {
	t := b.now()
	if b.buf.Len() > 0 && t.Sub(b.last) > IdleTimeout {
		b.buf.Reset()
	}
	b.buf.WriteRune(r)
	b.last = t
}

// Enter terminates the burst and returns the buffered code, trimmed. A stale
// buffer yields "", same as an empty one.
func (b *Buffer) Enter() string {
	t := b.now()
	code := b.buf.String()
	b.buf.Reset()
	if code != "" && t.Sub(b.last) > IdleTimeout {
		return ""
	}
	return strings.TrimSpace(code)
}

// Resolve maps a scanned code to an order from the given snapshot. Policy,
// in order: exact order-number match, exact record-ID match, then substring
// in either direction against either identifier. The first hit in snapshot
// order wins, matching how the console walked its loaded list.
func Resolve(code string, orders []database.Order) (database.Order, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return database.Order{}, false
	}

	for _, o := range orders {
		if o.OrderNumber == code {
			return o, true
		}
	}
	for _, o := range orders {
		if o.ID.String() == code {
			return o, true
		}
	}
	for _, o := range orders {
		if contains(o.OrderNumber, code) || contains(o.ID.String(), code) {
			return o, true
		}
	}
	return database.Order{}, false
}

// contains is the bidirectional substring check: a truncated scan matches the
// full identifier, and a scan with framing noise still matches its core.
func contains(identifier, code string) bool {
	if identifier == "" {
		return false
	}
	return strings.Contains(identifier, code) || strings.Contains(code, identifier)
}
