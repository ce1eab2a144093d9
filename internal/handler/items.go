package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/uniformhub/api/internal/database"
	"github.com/uniformhub/api/internal/enum"
	"github.com/uniformhub/api/internal/service"
)

// ItemStore defines the database methods needed by catalog handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ItemStore interface {
	GetUniformItem(ctx context.Context, id uuid.UUID) (database.UniformItem, error)
	ListUniformItems(ctx context.Context, arg database.ListUniformItemsParams) ([]database.UniformItem, error)
	CreateUniformItem(ctx context.Context, arg database.CreateUniformItemParams) (database.UniformItem, error)
	UpdateUniformItem(ctx context.Context, arg database.UpdateUniformItemParams) (database.UniformItem, error)
	SoftDeleteUniformItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ListUniformItemSizes(ctx context.Context, uniformItemID uuid.UUID) ([]database.UniformItemSize, error)
	CreateUniformItemSize(ctx context.Context, arg database.CreateUniformItemSizeParams) (database.UniformItemSize, error)
	DeleteUniformItemSizes(ctx context.Context, uniformItemID uuid.UUID) error
}

// ItemHandler handles uniform catalog CRUD endpoints. Writes that touch the
// size ladder run inside a transaction so a failed replacement never leaves
// an item without its ladder.
type ItemHandler struct {
	store    ItemStore
	pool     service.TxBeginner
	newStore func(db database.DBTX) ItemStore
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(store ItemStore, pool service.TxBeginner, newStore func(db database.DBTX) ItemStore) *ItemHandler {
	return &ItemHandler{store: store, pool: pool, newStore: newStore}
}

// RegisterRoutes registers catalog endpoints on the given Chi router.
// Expected to be mounted at /items.
func (h *ItemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type itemSizeRequest struct {
	Size  string `json:"size"`
	Price string `json:"price"`
}

type createItemRequest struct {
	ItemCode     string            `json:"item_code"`
	Category     string            `json:"category"`
	Gender       string            `json:"gender"`
	GradeLevel   string            `json:"grade_level"`
	Measurements string            `json:"measurements"`
	ImageRef     string            `json:"image_ref"`
	Sizes        []itemSizeRequest `json:"sizes"`
}

type updateItemRequest struct {
	Category     string            `json:"category"`
	Gender       string            `json:"gender"`
	GradeLevel   string            `json:"grade_level"`
	Measurements string            `json:"measurements"`
	ImageRef     string            `json:"image_ref"`
	Sizes        []itemSizeRequest `json:"sizes"`
}

type itemSizeResponse struct {
	ID    uuid.UUID `json:"id"`
	Size  string    `json:"size"`
	Price string    `json:"price"`
}

type itemResponse struct {
	ID           uuid.UUID          `json:"id"`
	ItemCode     string             `json:"item_code"`
	Category     string             `json:"category"`
	Gender       string             `json:"gender"`
	GradeLevel   string             `json:"grade_level"`
	Measurements *string            `json:"measurements"`
	ImageRef     *string            `json:"image_ref"`
	Sizes        []itemSizeResponse `json:"sizes,omitempty"`
}

// --- Handlers ---

// List returns active catalog records, optionally filtered by category and
// gender. Sizes are included per item so the shop screen renders the full
// ladder without extra roundtrips.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListUniformItemsParams{}
	if c := r.URL.Query().Get("category"); c != "" {
		params.Category = pgtype.Text{String: c, Valid: true}
	}
	if g := r.URL.Query().Get("gender"); g != "" {
		if !isValidGender(g) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gender"})
			return
		}
		params.Gender = pgtype.Text{String: g, Valid: true}
	}

	items, err := h.store.ListUniformItems(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list uniform items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]itemResponse, len(items))
	for i, item := range items {
		sizes, err := h.store.ListUniformItemSizes(r.Context(), item.ID)
		if err != nil {
			log.Printf("ERROR: list sizes: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp[i] = dbItemToResponse(item, sizes)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single active catalog record with its size ladder.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	item, err := h.store.GetUniformItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: get uniform item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	sizes, err := h.store.ListUniformItemSizes(r.Context(), item.ID)
	if err != nil {
		log.Printf("ERROR: list sizes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbItemToResponse(item, sizes))
}

// Create handles POST /items.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.ItemCode == "" || req.Category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "item_code and category are required"})
		return
	}
	if !isValidGender(req.Gender) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gender"})
		return
	}
	prices, err := parseSizes(req.Sizes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		log.Printf("ERROR: begin tx: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer tx.Rollback(r.Context()) //nolint:errcheck
	txStore := h.newStore(tx)

	item, err := txStore.CreateUniformItem(r.Context(), database.CreateUniformItemParams{
		ItemCode:     req.ItemCode,
		Category:     req.Category,
		Gender:       req.Gender,
		GradeLevel:   req.GradeLevel,
		Measurements: textOrNull(req.Measurements),
		ImageRef:     textOrNull(req.ImageRef),
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "item_code already in use"})
			return
		}
		log.Printf("ERROR: create uniform item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	sizes, err := replaceSizes(r.Context(), txStore, item.ID, req.Sizes, prices)
	if err != nil {
		log.Printf("ERROR: create sizes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		log.Printf("ERROR: commit item create: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbItemToResponse(item, sizes))
}

// Update handles PUT /items/{id}. The size ladder is replaced wholesale,
// matching how the admin form submits the entire list every save.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category is required"})
		return
	}
	if !isValidGender(req.Gender) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid gender"})
		return
	}
	prices, err := parseSizes(req.Sizes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		log.Printf("ERROR: begin tx: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer tx.Rollback(r.Context()) //nolint:errcheck
	txStore := h.newStore(tx)

	item, err := txStore.UpdateUniformItem(r.Context(), database.UpdateUniformItemParams{
		ID:           id,
		Category:     req.Category,
		Gender:       req.Gender,
		GradeLevel:   req.GradeLevel,
		Measurements: textOrNull(req.Measurements),
		ImageRef:     textOrNull(req.ImageRef),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: update uniform item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := txStore.DeleteUniformItemSizes(r.Context(), id); err != nil {
		log.Printf("ERROR: clear sizes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	sizes, err := replaceSizes(r.Context(), txStore, id, req.Sizes, prices)
	if err != nil {
		log.Printf("ERROR: replace sizes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		log.Printf("ERROR: commit item update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbItemToResponse(item, sizes))
}

// Delete handles DELETE /items/{id} (soft delete).
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	deletedID, err := h.store.SoftDeleteUniformItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: delete uniform item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": deletedID.String(), "status": "deleted"})
}

// --- Helpers ---

func replaceSizes(ctx context.Context, store ItemStore, itemID uuid.UUID, reqs []itemSizeRequest, prices []pgtype.Numeric) ([]database.UniformItemSize, error) {
	sizes := make([]database.UniformItemSize, 0, len(reqs))
	for i, sr := range reqs {
		s, err := store.CreateUniformItemSize(ctx, database.CreateUniformItemSizeParams{
			UniformItemID: itemID,
			Size:          sr.Size,
			Price:         prices[i],
		})
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, s)
	}
	return sizes, nil
}

var errInvalidSizePrice = errors.New("size entries need a size label and a non-negative price")

func parseSizes(reqs []itemSizeRequest) ([]pgtype.Numeric, error) {
	prices := make([]pgtype.Numeric, len(reqs))
	for i, sr := range reqs {
		if sr.Size == "" {
			return nil, errInvalidSizePrice
		}
		d, err := decimal.NewFromString(sr.Price)
		if err != nil || d.IsNegative() {
			return nil, errInvalidSizePrice
		}
		var n pgtype.Numeric
		if err := n.Scan(d.String()); err != nil {
			return nil, errInvalidSizePrice
		}
		prices[i] = n
	}
	return prices, nil
}

func dbItemToResponse(item database.UniformItem, sizes []database.UniformItemSize) itemResponse {
	resp := itemResponse{
		ID:         item.ID,
		ItemCode:   item.ItemCode,
		Category:   item.Category,
		Gender:     item.Gender,
		GradeLevel: item.GradeLevel,
	}
	if item.Measurements.Valid {
		resp.Measurements = &item.Measurements.String
	}
	if item.ImageRef.Valid {
		resp.ImageRef = &item.ImageRef.String
	}
	resp.Sizes = make([]itemSizeResponse, len(sizes))
	for i, s := range sizes {
		resp.Sizes[i] = itemSizeResponse{
			ID:    s.ID,
			Size:  s.Size,
			Price: numericToDecimal(s.Price).StringFixed(2),
		}
	}
	return resp
}

func isValidGender(g string) bool {
	switch g {
	case enum.GenderMale, enum.GenderFemale, enum.GenderUnisex:
		return true
	}
	return false
}
