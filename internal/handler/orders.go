package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/uniformhub/api/internal/database"
	"github.com/uniformhub/api/internal/enum"
	"github.com/uniformhub/api/internal/middleware"
	"github.com/uniformhub/api/internal/notify"
	"github.com/uniformhub/api/internal/scan"
	"github.com/uniformhub/api/internal/service"
	"github.com/uniformhub/api/internal/ws"
)

// snapshotLimit bounds the in-memory order list scanned codes resolve
// against, matching the most recent page the console kept loaded.
const snapshotLimit = 500

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID) (database.Order, error)
	ConfirmDelivery(ctx context.Context, id uuid.UUID, via string) (database.Order, error)
	ConfirmReturn(ctx context.Context, id uuid.UUID) (database.Order, error)
	ScheduleDelivery(ctx context.Context, id uuid.UUID, date time.Time) (database.Order, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// Enricher resolves requester display names.
// Satisfied by *service.NameResolver.
type Enricher interface {
	DisplayName(ctx context.Context, userID string) string
}

// AccountEmailLookup fetches the requester's account for the schedule email.
type AccountEmailLookup interface {
	GetAccountByUserID(ctx context.Context, userID string) (database.Account, error)
}

// Broadcaster pushes order events to connected console clients.
// Satisfied by *ws.Hub; nil disables broadcasting.
type Broadcaster interface {
	BroadcastStatusChange(statuses []string, event ws.Event)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc      OrderServicer
	store    OrderStore
	names    Enricher
	accounts AccountEmailLookup
	hub      Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, names Enricher, accounts AccountEmailLookup, hub Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, names: names, accounts: accounts, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/resolve", h.Resolve)
	r.Post("/scan", h.ScanConfirm)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/confirm-payment", h.ConfirmPayment)
		r.Post("/confirm-delivery", h.ConfirmDelivery)
		r.Post("/confirm-return", h.ConfirmReturn)
		r.Post("/schedule", h.Schedule)
	})
}

// --- Request / Response types ---

type createOrderRequest struct {
	OrderNumber   string                   `json:"order_number"`
	RequestedBy   string                   `json:"requested_by"`
	PaymentMethod string                   `json:"payment_method"`
	Items         []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	ItemCode string `json:"item_code"`
	Category string `json:"category"`
	Size     string `json:"size"`
	Quantity int32  `json:"quantity"`
	Price    string `json:"price"`
}

type confirmDeliveryRequest struct {
	Via string `json:"via"`
}

type scheduleRequest struct {
	ScheduledDate string `json:"scheduled_date"` // RFC3339
}

type scanConfirmRequest struct {
	Code   string `json:"code"`
	Action string `json:"action"` // payment | delivery | return
}

type resolveRequest struct {
	Code   string `json:"code"`
	Status string `json:"status"` // optional snapshot filter
}

type orderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	OrderNumber        string              `json:"order_number"`
	RequestedBy        string              `json:"requested_by"`
	RequesterName      string              `json:"requester_name,omitempty"`
	Status             string              `json:"status"`
	PaymentMethod      string              `json:"payment_method"`
	Total              string              `json:"total"`
	TotalDisplay       string              `json:"total_display"`
	CancellationReason *string             `json:"cancellation_reason"`
	ReturnReason       *string             `json:"return_reason"`
	ReceivedViaScan    bool                `json:"received_via_scan"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	PaidAt             *time.Time          `json:"paid_at"`
	DeliveredAt        *time.Time          `json:"delivered_at"`
	ReceivedAt         *time.Time          `json:"received_at"`
	CancelledAt        *time.Time          `json:"cancelled_at"`
	ReturnedAt         *time.Time          `json:"returned_at"`
	ReturnRequestedAt  *time.Time          `json:"return_requested_at"`
	ScheduledDate      *time.Time          `json:"scheduled_date"`
	ReturnSchedule     *time.Time          `json:"return_schedule"`
	Items              []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ItemCode  string    `json:"item_code"`
	Category  string    `json:"category"`
	Size      string    `json:"size"`
	Quantity  int32     `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Subtotal  string    `json:"subtotal"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type scheduleResponse struct {
	Order orderResponse        `json:"order"`
	Email notify.ScheduleEmail `json:"email"`
}

// --- Handlers ---

// Create handles POST /orders: intake from the parent-facing app. Customers
// can only order under their own account; staff may set any requester.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	if claims.Role == enum.RoleCustomer || req.RequestedBy == "" {
		req.RequestedBy = claims.UserID
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	svcItems := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		svcItems[i] = service.CreateOrderItemRequest{
			ItemCode: item.ItemCode,
			Category: item.Category,
			Size:     item.Size,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		OrderNumber:   req.OrderNumber,
		RequestedBy:   req.RequestedBy,
		PaymentMethod: req.PaymentMethod,
		Items:         svcItems,
	})
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbOrderToResponse(result.Order)
	resp.Items = make([]orderItemResponse, len(result.Items))
	for i, item := range result.Items {
		resp.Items[i] = dbOrderItemToResponse(item)
	}

	h.notifyStatusChange(r.Context(), "order.created", []string{result.Order.Status}, result.Order)
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /orders with optional status and date filters.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		if !isValidOrderStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	// Rolling window: days=N means created within the last N days. The
	// console computed this client-side against the loaded snapshot.
	if s := r.URL.Query().Get("days"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid days"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: time.Now().AddDate(0, 0, -v), Valid: true}
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: t, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
		resp[i].RequesterName = h.names.DisplayName(r.Context(), o.RequestedBy)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /orders/{id}. The total is derived from items here; the
// stored column is write-validated but never reported on the detail view.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbOrderToResponse(order)
	resp.RequesterName = h.names.DisplayName(r.Context(), order.RequestedBy)
	resp.Items = make([]orderItemResponse, len(items))
	for i, item := range items {
		resp.Items[i] = dbOrderItemToResponse(item)
	}
	derived := service.OrderTotal(items)
	resp.Total = derived.StringFixed(2)
	resp.TotalDisplay = notify.Peso(derived)

	writeJSON(w, http.StatusOK, resp)
}

// ConfirmPayment handles POST /orders/{id}/confirm-payment.
func (h *OrderHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "order.payment_confirmed", enum.OrderStatusToPay, func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return h.svc.ConfirmPayment(ctx, id)
	})
}

// ConfirmDelivery handles POST /orders/{id}/confirm-delivery.
func (h *OrderHandler) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	via := enum.ConfirmViaManual
	if r.ContentLength != 0 {
		var req confirmDeliveryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if req.Via != "" {
			via = req.Via
		}
	}

	h.transition(w, r, "order.delivery_confirmed", enum.OrderStatusToReceive, func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return h.svc.ConfirmDelivery(ctx, id, via)
	})
}

// ConfirmReturn handles POST /orders/{id}/confirm-return.
func (h *OrderHandler) ConfirmReturn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "order.return_confirmed", enum.OrderStatusPendingReturn, func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return h.svc.ConfirmReturn(ctx, id)
	})
}

// Schedule handles POST /orders/{id}/schedule: sets the pickup date and
// returns the composed notification email alongside the order.
func (h *OrderHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ScheduledDate == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "scheduled_date is required"})
		return
	}
	date, err := time.Parse(time.RFC3339, req.ScheduledDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid scheduled_date, use RFC3339"})
		return
	}

	order, err := h.svc.ScheduleDelivery(r.Context(), orderID, date)
	if err != nil {
		h.writeTransitionError(w, err, "schedule delivery")
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items for schedule: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	email := notify.ComposeDeliverySchedule(notify.ScheduleDetails{
		OrderNumber:   order.OrderNumber,
		RequesterName: h.names.DisplayName(r.Context(), order.RequestedBy),
		Email:         h.requesterEmail(r.Context(), order.RequestedBy),
		ScheduledDate: date,
		Total:         service.OrderTotal(items),
		ItemSummary:   itemSummary(items),
	})

	h.notifyStatusChange(r.Context(), "order.scheduled", []string{order.Status}, order)
	writeJSON(w, http.StatusOK, scheduleResponse{
		Order: dbOrderToResponse(order),
		Email: email,
	})
}

// Resolve handles POST /orders/resolve: looks up which order a scanned code
// refers to without applying any transition, so the console can show the
// order before the operator commits.
func (h *OrderHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}

	params := database.ListOrdersParams{Limit: snapshotLimit}
	if req.Status != "" {
		if !isValidOrderStatus(req.Status) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		params.Status = pgtype.Text{String: req.Status, Valid: true}
	}

	snapshot, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders for resolve: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	matched, ok := scan.Resolve(req.Code, snapshot)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no order matches the scanned code"})
		return
	}

	resp := dbOrderToResponse(matched)
	resp.RequesterName = h.names.DisplayName(r.Context(), matched.RequestedBy)
	writeJSON(w, http.StatusOK, resp)
}

// ScanConfirm handles POST /orders/scan: resolves a scanned code against the
// snapshot of orders awaiting the requested action, then applies the
// transition. The snapshot is filtered by the action's precondition status,
// the same list the scanning screen has on display.
func (h *OrderHandler) ScanConfirm(w http.ResponseWriter, r *http.Request) {
	var req scanConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}

	var (
		required  string
		eventType string
		apply     func(ctx context.Context, id uuid.UUID) (database.Order, error)
	)
	switch req.Action {
	case "payment":
		required = enum.OrderStatusToPay
		eventType = "order.payment_confirmed"
		apply = h.svc.ConfirmPayment
	case "delivery":
		required = enum.OrderStatusToReceive
		eventType = "order.delivery_confirmed"
		apply = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			return h.svc.ConfirmDelivery(ctx, id, enum.ConfirmViaScan)
		}
	case "return":
		required = enum.OrderStatusPendingReturn
		eventType = "order.return_confirmed"
		apply = h.svc.ConfirmReturn
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid action"})
		return
	}

	// Exact order-number scans skip the snapshot so an order in the wrong
	// status still gets a precondition conflict instead of a blank not-found.
	matched, err := h.store.GetOrderByNumber(r.Context(), req.Code)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("ERROR: get order by number for scan: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		snapshot, err := h.store.ListOrders(r.Context(), database.ListOrdersParams{
			Status: pgtype.Text{String: required, Valid: true},
			Limit:  snapshotLimit,
		})
		if err != nil {
			log.Printf("ERROR: list orders for scan: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		var ok bool
		matched, ok = scan.Resolve(req.Code, snapshot)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no order matches the scanned code"})
			return
		}
	}

	order, err := apply(r.Context(), matched.ID)
	if err != nil {
		h.writeTransitionError(w, err, "scan confirm")
		return
	}

	h.notifyStatusChange(r.Context(), eventType, []string{required, order.Status}, order)
	writeJSON(w, http.StatusOK, dbOrderToResponse(order))
}

// --- Helpers ---

// transition runs a manual status transition endpoint: parse ID, apply,
// broadcast to the rooms the order left and entered, respond.
func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, eventType, fromStatus string, apply func(ctx context.Context, id uuid.UUID) (database.Order, error)) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := apply(r.Context(), orderID)
	if err != nil {
		h.writeTransitionError(w, err, eventType)
		return
	}

	h.notifyStatusChange(r.Context(), eventType, []string{fromStatus, order.Status}, order)
	writeJSON(w, http.StatusOK, dbOrderToResponse(order))
}

func (h *OrderHandler) writeTransitionError(w http.ResponseWriter, err error, op string) {
	var mismatch *service.StatusMismatchError
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	case errors.As(err, &mismatch):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":  mismatch.Error(),
			"status": mismatch.Current,
		})
	case errors.Is(err, service.ErrInvalidConfirmVia), errors.Is(err, service.ErrScheduleInPast):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// notifyStatusChange broadcasts an order event to console clients watching
// any of the given statuses. The payload is the serialized order.
func (h *OrderHandler) notifyStatusChange(ctx context.Context, eventType string, statuses []string, order database.Order) {
	if h.hub == nil {
		return
	}
	resp := dbOrderToResponse(order)
	resp.RequesterName = h.names.DisplayName(ctx, order.RequestedBy)
	payload, err := json.Marshal(resp)
	if err != nil {
		log.Printf("ERROR: marshal %s event: %v", eventType, err)
		return
	}
	h.hub.BroadcastStatusChange(statuses, ws.Event{Type: eventType, Payload: payload})
}

func (h *OrderHandler) requesterEmail(ctx context.Context, userID string) string {
	account, err := h.accounts.GetAccountByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("ERROR: get account for email: %v", err)
		}
		return ""
	}
	return account.Email
}

func itemSummary(items []database.OrderItem) []string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = item.ItemCode + " (" + item.Size + ") x" + strconv.Itoa(int(item.Quantity))
	}
	return lines
}

// isValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidPrice) ||
		errors.Is(err, service.ErrInvalidPaymentMethod) ||
		errors.Is(err, service.ErrInvalidItemCode) ||
		errors.Is(err, service.ErrInvalidSize) ||
		errors.Is(err, service.ErrUnknownRequester)
}

func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusToPay, enum.OrderStatusToReceive, enum.OrderStatusCompleted,
		enum.OrderStatusPendingReturn, enum.OrderStatusReturned, enum.OrderStatusToRefund,
		enum.OrderStatusRefunded, enum.OrderStatusVoid, enum.OrderStatusCancelled,
		enum.OrderStatusArchived:
		return true
	}
	return false
}

// dbOrderToResponse converts a database.Order to an orderResponse. The list
// path serves the stored total; it is written as the derivation and no code
// path mutates items afterward, so it cannot drift the way the legacy
// orderTotal did. The detail path overwrites it with a fresh derivation.
func dbOrderToResponse(o database.Order) orderResponse {
	total := numericToDecimal(o.TotalAmount)
	resp := orderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		RequestedBy:     o.RequestedBy,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		Total:           total.StringFixed(2),
		TotalDisplay:    notify.Peso(total),
		ReceivedViaScan: o.ReceivedViaScan,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}

	if o.CancellationReason.Valid {
		resp.CancellationReason = &o.CancellationReason.String
	}
	if o.ReturnReason.Valid {
		resp.ReturnReason = &o.ReturnReason.String
	}
	resp.PaidAt = timestampPtr(o.PaidAt)
	resp.DeliveredAt = timestampPtr(o.DeliveredAt)
	resp.ReceivedAt = timestampPtr(o.ReceivedAt)
	resp.CancelledAt = timestampPtr(o.CancelledAt)
	resp.ReturnedAt = timestampPtr(o.ReturnedAt)
	resp.ReturnRequestedAt = timestampPtr(o.ReturnRequestedAt)
	resp.ScheduledDate = timestampPtr(o.ScheduledDate)
	resp.ReturnSchedule = timestampPtr(o.ReturnSchedule)

	return resp
}

func dbOrderItemToResponse(item database.OrderItem) orderItemResponse {
	price := numericToDecimal(item.UnitPrice)
	return orderItemResponse{
		ID:        item.ID,
		ItemCode:  item.ItemCode,
		Category:  item.Category,
		Size:      item.Size,
		Quantity:  item.Quantity,
		UnitPrice: price.StringFixed(2),
		Subtotal:  price.Mul(decimal.NewFromInt32(item.Quantity)).StringFixed(2),
	}
}

func timestampPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
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
