package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPeso(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"300", "₱300.00"},
		{"250.5", "₱250.50"},
		{"0", "₱0.00"},
		{"1234.567", "₱1234.57"},
	}
	for _, tt := range tests {
		if got := Peso(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("Peso(%s): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComposeDeliverySchedule(t *testing.T) {
	email := ComposeDeliverySchedule(ScheduleDetails{
		OrderNumber:   "ORDR2608280042",
		RequesterName: "Maria Santos",
		Email:         "maria@example.com",
		ScheduledDate: time.Date(2026, 9, 4, 9, 0, 0, 0, time.UTC),
		Total:         decimal.RequireFromString("300"),
		ItemSummary:   []string{"POLO-01 (M) x2", "PANTS-02 (M) x1"},
	})

	if email.To != "maria@example.com" {
		t.Errorf("to: got %q", email.To)
	}
	if email.Subject != "Uniform order ORDR2608280042 pickup schedule" {
		t.Errorf("subject: got %q", email.Subject)
	}
	for _, want := range []string{
		"Dear Maria Santos,",
		"ORDR2608280042",
		"September 4, 2026",
		"POLO-01 (M) x2",
		"PANTS-02 (M) x1",
		"₱300.00",
	} {
		if !strings.Contains(email.Body, want) {
			t.Errorf("body missing %q:\n%s", want, email.Body)
		}
	}
}

func TestComposeDeliverySchedule_NoItems(t *testing.T) {
	email := ComposeDeliverySchedule(ScheduleDetails{
		OrderNumber:   "ORDR2608280001",
		RequesterName: "Customer",
		ScheduledDate: time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC),
		Total:         decimal.Zero,
	})

	if strings.Contains(email.Body, "Items:") {
		t.Errorf("body should omit empty item list:\n%s", email.Body)
	}
	if !strings.Contains(email.Body, "₱0.00") {
		t.Errorf("body missing zero total:\n%s", email.Body)
	}
}
