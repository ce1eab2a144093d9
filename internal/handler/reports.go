package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/uniformhub/api/internal/database"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	GetStatusSummary(ctx context.Context, arg database.GetStatusSummaryParams) ([]database.GetStatusSummaryRow, error)
	GetCategorySales(ctx context.Context, arg database.GetCategorySalesParams) ([]database.GetCategorySalesRow, error)
	ListOrdersForExport(ctx context.Context, arg database.ListOrdersForExportParams) ([]database.ListOrdersForExportRow, error)
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	store ReportsStore
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
// Expected to be mounted at /reports.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/status-summary", h.StatusSummary)
	r.Get("/category-sales", h.CategorySales)
	r.Get("/export", h.ExportCSV)
}

// --- Response types ---

type statusSummaryResponse struct {
	Status       string `json:"status"`
	OrderCount   int64  `json:"order_count"`
	TotalRevenue string `json:"total_revenue"`
}

type categorySalesResponse struct {
	Category     string `json:"category"`
	QuantitySold int64  `json:"quantity_sold"`
	TotalRevenue string `json:"total_revenue"`
}

// --- Handlers ---

// StatusSummary returns per-status order counts and revenue for a date range.
func (h *ReportsHandler) StatusSummary(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetStatusSummary(r.Context(), database.GetStatusSummaryParams{
		StartDate: pgtype.Timestamptz{Time: startDate, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: endDate, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: status summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]statusSummaryResponse, len(rows))
	for i, row := range rows {
		resp[i] = statusSummaryResponse{
			Status:       row.Status,
			OrderCount:   row.OrderCount,
			TotalRevenue: numericToDecimal(row.TotalRevenue).StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// CategorySales returns quantity and revenue per uniform category. Only
// completed orders count toward sales.
func (h *ReportsHandler) CategorySales(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetCategorySales(r.Context(), database.GetCategorySalesParams{
		StartDate: pgtype.Timestamptz{Time: startDate, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: endDate, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: category sales: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]categorySalesResponse, len(rows))
	for i, row := range rows {
		resp[i] = categorySalesResponse{
			Category:     row.Category,
			QuantitySold: row.QuantitySold,
			TotalRevenue: numericToDecimal(row.TotalRevenue).StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExportCSV streams the order ledger as a CSV download. Totals in the export
// are derived from items, never the stored column.
func (h *ReportsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	params := database.ListOrdersForExportParams{
		StartDate: pgtype.Timestamptz{Time: startDate, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: endDate, Valid: true},
	}
	if s := r.URL.Query().Get("status"); s != "" {
		if !isValidOrderStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}

	rows, err := h.store.ListOrdersForExport(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: export orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	filename := fmt.Sprintf("orders_%s_%s.csv", startDate.Format("20060102"), endDate.AddDate(0, 0, -1).Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"order_number", "requested_by", "status", "payment_method", "total", "created_at"})
	for _, row := range rows {
		_ = cw.Write([]string{
			row.OrderNumber,
			row.RequestedBy,
			row.Status,
			row.PaymentMethod,
			numericToDecimal(row.DerivedTotal).StringFixed(2),
			row.CreatedAt.Format(time.RFC3339),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("ERROR: write csv: %v", err)
	}
}

// --- Helpers ---

// parseDateRange parses start_date and end_date query params in Asia/Manila
// timezone. Defaults to last 30 days if not provided.
// Returns (startDate, endDate, error) where endDate is exclusive (next day midnight).
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	const layout = "2006-01-02"

	loc, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		loc = time.FixedZone("PHT", 8*3600)
	}

	now := time.Now().In(loc)

	startDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -30)
	endDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1) // next day midnight

	// Rolling window: days=N means created within the last N days.
	if s := r.URL.Query().Get("days"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid days: %q", s)
		}
		startDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -v)
	}

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date format: %w", err)
		}
		startDate = t
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date format: %w", err)
		}
		// Make end_date exclusive by adding 1 day
		endDate = t.AddDate(0, 0, 1)
	}

	if !startDate.Before(endDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must be before end_date")
	}

	return startDate, endDate, nil
}
