package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Order is one customer purchase of uniform items. The legacy store kept
// timestamps in three different shapes (timestamp object, Date, string);
// here every optional timestamp is a pgtype.Timestamptz and nothing else.
type Order struct {
	ID                 uuid.UUID
	OrderNumber        string
	RequestedBy        string
	Status             string
	PaymentMethod      string
	TotalAmount        pgtype.Numeric
	CancellationReason pgtype.Text
	ReturnReason       pgtype.Text
	ReceivedViaScan    bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
	PaidAt             pgtype.Timestamptz
	DeliveredAt        pgtype.Timestamptz
	ReceivedAt         pgtype.Timestamptz
	CancelledAt        pgtype.Timestamptz
	ReturnedAt         pgtype.Timestamptz
	ReturnRequestedAt  pgtype.Timestamptz
	ScheduledDate      pgtype.Timestamptz
	ReturnSchedule     pgtype.Timestamptz
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ItemCode  string
	Category  string
	Size      string
	Quantity  int32
	UnitPrice pgtype.Numeric
}

// Account is a person: customer (parent/guardian) or staff. user_id is the
// canonical external identifier; the legacy store joined on userId in some
// screens and firebase_uid in others.
type Account struct {
	ID             uuid.UUID
	UserID         string
	FirstName      pgtype.Text
	LastName       pgtype.Text
	ParentFullname pgtype.Text
	Email          string
	Role           string
	Status         string
	HashedPassword string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UniformItem is a catalog record edited directly by Admin.
type UniformItem struct {
	ID           uuid.UUID
	ItemCode     string
	Category     string
	Gender       string
	GradeLevel   string
	Measurements pgtype.Text
	ImageRef     pgtype.Text
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UniformItemSize struct {
	ID            uuid.UUID
	UniformItemID uuid.UUID
	Size          string
	Price         pgtype.Numeric
}

// Student links a child to a guardian account; informational display only.
type Student struct {
	ID             uuid.UUID
	GuardianUserID string
	FullName       string
	GradeLevel     string
	Section        pgtype.Text
	CreatedAt      time.Time
}
