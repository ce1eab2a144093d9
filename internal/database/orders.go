package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, requested_by, status, payment_method, total_amount,
	cancellation_reason, return_reason, received_via_scan, created_at, updated_at,
	paid_at, delivered_at, received_at, cancelled_at, returned_at,
	return_requested_at, scheduled_date, return_schedule`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.RequestedBy, &o.Status, &o.PaymentMethod, &o.TotalAmount,
		&o.CancellationReason, &o.ReturnReason, &o.ReceivedViaScan, &o.CreatedAt, &o.UpdatedAt,
		&o.PaidAt, &o.DeliveredAt, &o.ReceivedAt, &o.CancelledAt, &o.ReturnedAt,
		&o.ReturnRequestedAt, &o.ScheduledDate, &o.ReturnSchedule,
	)
	return o, err
}

type CreateOrderParams struct {
	OrderNumber   string
	RequestedBy   string
	Status        string
	PaymentMethod string
	TotalAmount   pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (order_number, requested_by, status, payment_method, total_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+orderColumns,
		arg.OrderNumber, arg.RequestedBy, arg.Status, arg.PaymentMethod, arg.TotalAmount)
	return scanOrder(row)
}

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	ItemCode  string
	Category  string
	Size      string
	Quantity  int32
	UnitPrice pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, item_code, category, size, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, order_id, item_code, category, size, quantity, unit_price`,
		arg.OrderID, arg.ItemCode, arg.Category, arg.Size, arg.Quantity, arg.UnitPrice)
	var i OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.ItemCode, &i.Category, &i.Size, &i.Quantity, &i.UnitPrice)
	return i, err
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (q *Queries) GetOrderByNumber(ctx context.Context, orderNumber string) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
	return scanOrder(row)
}

type ListOrdersParams struct {
	Status    pgtype.Text
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at < $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`,
		arg.Status, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, item_code, category, size, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY item_code, size`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ItemCode, &i.Category, &i.Size, &i.Quantity, &i.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// MarkOrderPaid is the TO_PAY -> TO_RECEIVE transition. The status predicate
// makes the update a compare-and-swap: if a concurrent confirmation already
// moved the order, no row matches and Scan returns pgx.ErrNoRows.
func (q *Queries) MarkOrderPaid(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'TO_RECEIVE', paid_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'TO_PAY'
		RETURNING `+orderColumns, id)
	return scanOrder(row)
}

type MarkOrderDeliveredParams struct {
	ID              uuid.UUID
	ReceivedViaScan bool
}

// MarkOrderDelivered is the TO_RECEIVE -> COMPLETED transition.
func (q *Queries) MarkOrderDelivered(ctx context.Context, arg MarkOrderDeliveredParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'COMPLETED', delivered_at = now(), received_at = now(),
		    received_via_scan = $2, updated_at = now()
		WHERE id = $1 AND status = 'TO_RECEIVE'
		RETURNING `+orderColumns, arg.ID, arg.ReceivedViaScan)
	return scanOrder(row)
}

// MarkOrderReturned is the PENDING_RETURN -> RETURNED transition.
func (q *Queries) MarkOrderReturned(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'RETURNED', returned_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'PENDING_RETURN'
		RETURNING `+orderColumns, id)
	return scanOrder(row)
}

type ScheduleOrderDeliveryParams struct {
	ID            uuid.UUID
	ScheduledDate pgtype.Timestamptz
}

// ScheduleOrderDelivery sets the pickup/delivery date on an order awaiting
// delivery. Same CAS shape as the transitions, though the status is unchanged.
func (q *Queries) ScheduleOrderDelivery(ctx context.Context, arg ScheduleOrderDeliveryParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET scheduled_date = $2, updated_at = now()
		WHERE id = $1 AND status = 'TO_RECEIVE'
		RETURNING `+orderColumns, arg.ID, arg.ScheduledDate)
	return scanOrder(row)
}
