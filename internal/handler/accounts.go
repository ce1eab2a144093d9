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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/uniformhub/api/internal/database"
	"github.com/uniformhub/api/internal/enum"
	"golang.org/x/crypto/bcrypt"
)

// AccountStore defines the database methods needed by account handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AccountStore interface {
	GetAccountByID(ctx context.Context, id uuid.UUID) (database.Account, error)
	ListAccounts(ctx context.Context, arg database.ListAccountsParams) ([]database.Account, error)
	CreateAccount(ctx context.Context, arg database.CreateAccountParams) (database.Account, error)
	UpdateAccount(ctx context.Context, arg database.UpdateAccountParams) (database.Account, error)
	SetAccountStatus(ctx context.Context, arg database.SetAccountStatusParams) (database.Account, error)
}

// AccountHandler handles account management endpoints.
type AccountHandler struct {
	store AccountStore
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(store AccountStore) *AccountHandler {
	return &AccountHandler{store: store}
}

// RegisterRoutes registers account endpoints on the given Chi router.
// Expected to be mounted at /accounts.
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Post("/status", h.SetStatus)
	})
}

// --- Request / Response types ---

type createAccountRequest struct {
	UserID         string `json:"user_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ParentFullname string `json:"parent_fullname"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Password       string `json:"password"`
}

type updateAccountRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ParentFullname string `json:"parent_fullname"`
	Email          string `json:"email"`
	Role           string `json:"role"`
}

type setAccountStatusRequest struct {
	Status string `json:"status"`
}

type accountResponse struct {
	ID             uuid.UUID `json:"id"`
	UserID         string    `json:"user_id"`
	FirstName      string    `json:"first_name,omitempty"`
	LastName       string    `json:"last_name,omitempty"`
	ParentFullname string    `json:"parent_fullname,omitempty"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// --- Handlers ---

// Create handles POST /accounts. Staff accounts are created here by
// SUPER_ADMIN; customer accounts arrive through the same endpoint during
// parent registration.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}
	if !isValidRole(req.Role) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}
	if req.UserID == "" {
		req.UserID = uuid.NewString()
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: hash password: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	account, err := h.store.CreateAccount(r.Context(), database.CreateAccountParams{
		UserID:         req.UserID,
		FirstName:      textOrNull(req.FirstName),
		LastName:       textOrNull(req.LastName),
		ParentFullname: textOrNull(req.ParentFullname),
		Email:          req.Email,
		Role:           req.Role,
		HashedPassword: string(hashed),
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email or user_id already in use"})
			return
		}
		log.Printf("ERROR: create account: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbAccountToResponse(account))
}

// List handles GET /accounts with an optional role filter.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
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

	params := database.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}
	if role := r.URL.Query().Get("role"); role != "" {
		if !isValidRole(role) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
			return
		}
		params.Role = pgtype.Text{String: role, Valid: true}
	}

	accounts, err := h.store.ListAccounts(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list accounts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		resp[i] = dbAccountToResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /accounts/{id}.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	account, err := h.store.GetAccountByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "account not found"})
			return
		}
		log.Printf("ERROR: get account: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbAccountToResponse(account))
}

// Update handles PUT /accounts/{id}.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}
	if !isValidRole(req.Role) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}

	account, err := h.store.UpdateAccount(r.Context(), database.UpdateAccountParams{
		ID:             id,
		FirstName:      textOrNull(req.FirstName),
		LastName:       textOrNull(req.LastName),
		ParentFullname: textOrNull(req.ParentFullname),
		Email:          req.Email,
		Role:           req.Role,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "account not found"})
			return
		}
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already in use"})
			return
		}
		log.Printf("ERROR: update account: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbAccountToResponse(account))
}

// SetStatus handles POST /accounts/{id}/status: activate or disable.
func (h *AccountHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account ID"})
		return
	}

	var req setAccountStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status != enum.AccountStatusActive && req.Status != enum.AccountStatusDisabled {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	account, err := h.store.SetAccountStatus(r.Context(), database.SetAccountStatusParams{
		ID:     id,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "account not found"})
			return
		}
		log.Printf("ERROR: set account status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbAccountToResponse(account))
}

// --- Helpers ---

func dbAccountToResponse(a database.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		UserID:         a.UserID,
		FirstName:      a.FirstName.String,
		LastName:       a.LastName.String,
		ParentFullname: a.ParentFullname.String,
		Email:          a.Email,
		Role:           a.Role,
		Status:         a.Status,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func isValidRole(role string) bool {
	switch role {
	case enum.RoleAdmin, enum.RoleAccountant, enum.RoleSuperAdmin, enum.RoleCustomer:
		return true
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
