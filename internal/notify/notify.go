// Package notify composes human-readable messages for delivery scheduling.
// The service never sends mail itself; the composed message is handed to the
// operator's mail client, same as the legacy console did.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleEmail is a composed message ready for a mailto handoff.
type ScheduleEmail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ScheduleDetails carries everything the template needs; callers resolve the
// requester name and derived total before composing.
type ScheduleDetails struct {
	OrderNumber   string
	RequesterName string
	Email         string
	ScheduledDate time.Time
	Total         decimal.Decimal
	ItemSummary   []string // "PE-SHIRT (M) x1" lines
}

// ComposeDeliverySchedule builds the pickup-schedule message for an order.
func ComposeDeliverySchedule(d ScheduleDetails) ScheduleEmail {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", d.RequesterName)
	fmt.Fprintf(&b, "Your uniform order %s is ready for pickup on %s.\n\n",
		d.OrderNumber, d.ScheduledDate.Format("January 2, 2006"))
	if len(d.ItemSummary) > 0 {
		b.WriteString("Items:\n")
		for _, line := range d.ItemSummary {
			fmt.Fprintf(&b, "  - %s\n", line)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Amount due on pickup: %s\n\n", Peso(d.Total))
	b.WriteString("Please present this order number or its QR code at the counter.\n")

	return ScheduleEmail{
		To:      d.Email,
		Subject: fmt.Sprintf("Uniform order %s pickup schedule", d.OrderNumber),
		Body:    b.String(),
	}
}

// Peso formats an amount the way the console displayed it.
func Peso(d decimal.Decimal) string {
	return "₱" + d.StringFixed(2)
}
