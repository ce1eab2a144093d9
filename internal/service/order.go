package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/uniformhub/api/internal/database"
	"github.com/uniformhub/api/internal/enum"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidPrice         = errors.New("invalid price")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidItemCode      = errors.New("item_code is required")
	ErrInvalidSize          = errors.New("size is required")
	ErrInvalidConfirmVia    = errors.New("invalid confirmation channel")
	ErrScheduleInPast       = errors.New("scheduled_date must be in the future")
	ErrUnknownRequester     = errors.New("requested_by does not match any account")
)

// StatusMismatchError reports a transition whose precondition failed: the
// order exists but is not in the required status. The actual status is kept
// so operators see "order is COMPLETED" instead of a bare rejection.
type StatusMismatchError struct {
	OrderNumber string
	Current     string
	Required    string
}

func (e *StatusMismatchError) Error() string {
	return fmt.Sprintf("order %s is %s, expected %s", e.OrderNumber, e.Current, e.Required)
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	MarkOrderPaid(ctx context.Context, id uuid.UUID) (database.Order, error)
	MarkOrderDelivered(ctx context.Context, arg database.MarkOrderDeliveredParams) (database.Order, error)
	MarkOrderReturned(ctx context.Context, id uuid.UUID) (database.Order, error)
	ScheduleOrderDelivery(ctx context.Context, arg database.ScheduleOrderDeliveryParams) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// OrderService owns the order status lifecycle. Every transition is a single
// conditional UPDATE: the legacy console read the status, checked it in the
// client, then wrote unconditionally, so two staff scanning the same code
// could both confirm. Here exactly one of them wins.
type OrderService struct {
	store    OrderStore
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(store OrderStore, pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{store: store, pool: pool, newStore: newStore}
}

// --- Status transitions ---

// ConfirmPayment moves TO_PAY -> TO_RECEIVE and stamps paid_at.
func (s *OrderService) ConfirmPayment(ctx context.Context, id uuid.UUID) (database.Order, error) {
	order, err := s.store.MarkOrderPaid(ctx, id)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, fmt.Errorf("mark order paid: %w", err)
	}
	return database.Order{}, s.mismatch(ctx, id, enum.OrderStatusToPay)
}

// ConfirmDelivery moves TO_RECEIVE -> COMPLETED, stamps delivered_at and
// received_at, and records whether the confirmation came from a scanned code
// or a manual button press.
func (s *OrderService) ConfirmDelivery(ctx context.Context, id uuid.UUID, via string) (database.Order, error) {
	if via != enum.ConfirmViaManual && via != enum.ConfirmViaScan {
		return database.Order{}, ErrInvalidConfirmVia
	}
	order, err := s.store.MarkOrderDelivered(ctx, database.MarkOrderDeliveredParams{
		ID:              id,
		ReceivedViaScan: via == enum.ConfirmViaScan,
	})
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, fmt.Errorf("mark order delivered: %w", err)
	}
	return database.Order{}, s.mismatch(ctx, id, enum.OrderStatusToReceive)
}

// ConfirmReturn moves PENDING_RETURN -> RETURNED and stamps returned_at.
func (s *OrderService) ConfirmReturn(ctx context.Context, id uuid.UUID) (database.Order, error) {
	order, err := s.store.MarkOrderReturned(ctx, id)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, fmt.Errorf("mark order returned: %w", err)
	}
	return database.Order{}, s.mismatch(ctx, id, enum.OrderStatusPendingReturn)
}

// ScheduleDelivery sets the pickup date on a TO_RECEIVE order.
func (s *OrderService) ScheduleDelivery(ctx context.Context, id uuid.UUID, date time.Time) (database.Order, error) {
	if !date.After(time.Now()) {
		return database.Order{}, ErrScheduleInPast
	}
	order, err := s.store.ScheduleOrderDelivery(ctx, database.ScheduleOrderDeliveryParams{
		ID:            id,
		ScheduledDate: pgtype.Timestamptz{Time: date, Valid: true},
	})
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, fmt.Errorf("schedule order delivery: %w", err)
	}
	return database.Order{}, s.mismatch(ctx, id, enum.OrderStatusToReceive)
}

// mismatch converts a no-rows conditional update into either not-found or a
// StatusMismatchError naming the actual current status.
func (s *OrderService) mismatch(ctx context.Context, id uuid.UUID, required string) error {
	current, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("get order: %w", err)
	}
	return &StatusMismatchError{
		OrderNumber: current.OrderNumber,
		Current:     current.Status,
		Required:    required,
	}
}

// --- Order intake ---

// CreateOrderRequest is the validated input for ingesting an order from the
// parent-facing app. Orders always start in TO_PAY.
type CreateOrderRequest struct {
	OrderNumber   string // optional; regenerated when absent or malformed
	RequestedBy   string
	PaymentMethod string
	Items         []CreateOrderItemRequest
}

type CreateOrderItemRequest struct {
	ItemCode string
	Category string
	Size     string
	Quantity int32
	Price    string
}

// CreateOrderResult is the created order with its items.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

type processedItem struct {
	params database.CreateOrderItemParams
}

// CreateOrder validates, derives the total, and inserts an order atomically.
// Retries on order_number unique conflicts with a freshly generated number.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if req.PaymentMethod != enum.PaymentMethodCash && req.PaymentMethod != enum.PaymentMethodBank {
		return nil, ErrInvalidPaymentMethod
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	total := decimal.Zero
	items := make([]processedItem, 0, len(req.Items))
	for i, item := range req.Items {
		if item.ItemCode == "" {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidItemCode)
		}
		if item.Size == "" {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidSize)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		price, err := decimal.NewFromString(item.Price)
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidPrice)
		}
		total = total.Add(price.Mul(decimal.NewFromInt32(item.Quantity)))
		items = append(items, processedItem{params: database.CreateOrderItemParams{
			ItemCode:  item.ItemCode,
			Category:  item.Category,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: decimalToNumeric(price),
		}})
	}

	// The stored total is always the derivation; a client-supplied total is
	// never trusted (the legacy orderTotal field was known to drift).
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		orderNumber := req.OrderNumber
		if attempt > 0 || !ValidOrderNumber(orderNumber) {
			orderNumber = GenerateOrderNumber(time.Now())
		}
		result, err := s.createOrderTx(ctx, req, orderNumber, total, items)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		if isUnknownRequester(err) {
			return nil, ErrUnknownRequester
		}
		return nil, err
	}
	return nil, lastErr
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest, orderNumber string, total decimal.Decimal, items []processedItem) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:   orderNumber,
		RequestedBy:   req.RequestedBy,
		Status:        enum.OrderStatusToPay,
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   decimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	created := make([]database.OrderItem, 0, len(items))
	for _, pi := range items {
		pi.params.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, pi.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		created = append(created, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: created}, nil
}

// isOrderNumberConflict checks for a unique constraint violation on
// order_number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

// isUnknownRequester checks for a foreign key violation on requested_by
// (pgconn error code 23503).
func isUnknownRequester(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503" && pgErr.ConstraintName == "orders_requested_by_fkey"
	}
	return false
}

// --- Helpers ---

var orderNumberPattern = regexp.MustCompile(`^ORDR\d{6}\d{4}$`)

// ValidOrderNumber reports whether s matches ORDR{YY}{MM}{DD}{4 digits}.
func ValidOrderNumber(s string) bool {
	return orderNumberPattern.MatchString(s)
}

// GenerateOrderNumber builds a fresh order number for the given day.
func GenerateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORDR%s%04d", now.Format("060102"), rand.IntN(10000))
}

// OrderTotal derives the order total as sum(price x quantity) over items.
// This is the single source of truth for totals on the read path.
func OrderTotal(items []database.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(numericToDecimal(item.UnitPrice).Mul(decimal.NewFromInt32(item.Quantity)))
	}
	return total
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
