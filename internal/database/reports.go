package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Report queries derive revenue from order_items (price x quantity); the
// stored orders.total_amount is never trusted for reporting.

type GetStatusSummaryParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetStatusSummaryRow struct {
	Status       string
	OrderCount   int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetStatusSummary(ctx context.Context, arg GetStatusSummaryParams) ([]GetStatusSummaryRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT o.status,
		       COUNT(DISTINCT o.id) AS order_count,
		       COALESCE(SUM(oi.unit_price * oi.quantity), 0) AS total_revenue
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE ($1::timestamptz IS NULL OR o.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR o.created_at < $2)
		GROUP BY o.status
		ORDER BY o.status`,
		arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GetStatusSummaryRow
	for rows.Next() {
		var r GetStatusSummaryRow
		if err := rows.Scan(&r.Status, &r.OrderCount, &r.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type GetCategorySalesParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetCategorySalesRow struct {
	Category     string
	QuantitySold int64
	TotalRevenue pgtype.Numeric
}

// GetCategorySales counts only completed orders: revenue is recognized at
// delivery, not at order placement.
func (q *Queries) GetCategorySales(ctx context.Context, arg GetCategorySalesParams) ([]GetCategorySalesRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT oi.category,
		       COALESCE(SUM(oi.quantity), 0) AS quantity_sold,
		       COALESCE(SUM(oi.unit_price * oi.quantity), 0) AS total_revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = 'COMPLETED'
		  AND ($1::timestamptz IS NULL OR o.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR o.created_at < $2)
		GROUP BY oi.category
		ORDER BY total_revenue DESC`,
		arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GetCategorySalesRow
	for rows.Next() {
		var r GetCategorySalesRow
		if err := rows.Scan(&r.Category, &r.QuantitySold, &r.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type ListOrdersForExportParams struct {
	Status    pgtype.Text
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type ListOrdersForExportRow struct {
	OrderNumber   string
	RequestedBy   string
	Status        string
	PaymentMethod string
	DerivedTotal  pgtype.Numeric
	CreatedAt     time.Time
}

func (q *Queries) ListOrdersForExport(ctx context.Context, arg ListOrdersForExportParams) ([]ListOrdersForExportRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT o.order_number, o.requested_by, o.status, o.payment_method,
		       COALESCE(SUM(oi.unit_price * oi.quantity), 0) AS derived_total,
		       o.created_at
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE ($1::text IS NULL OR o.status = $1)
		  AND ($2::timestamptz IS NULL OR o.created_at >= $2)
		  AND ($3::timestamptz IS NULL OR o.created_at < $3)
		GROUP BY o.id
		ORDER BY o.created_at DESC`,
		arg.Status, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListOrdersForExportRow
	for rows.Next() {
		var r ListOrdersForExportRow
		if err := rows.Scan(&r.OrderNumber, &r.RequestedBy, &r.Status, &r.PaymentMethod, &r.DerivedTotal, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
