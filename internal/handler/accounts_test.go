package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/uniformhub/api/internal/database"
	"github.com/uniformhub/api/internal/enum"
	"github.com/uniformhub/api/internal/handler"
	"github.com/uniformhub/api/internal/middleware"
	"golang.org/x/crypto/bcrypt"
)

type mockAccountStore struct {
	getByIDFn   func(ctx context.Context, id uuid.UUID) (database.Account, error)
	listFn      func(ctx context.Context, arg database.ListAccountsParams) ([]database.Account, error)
	createFn    func(ctx context.Context, arg database.CreateAccountParams) (database.Account, error)
	updateFn    func(ctx context.Context, arg database.UpdateAccountParams) (database.Account, error)
	setStatusFn func(ctx context.Context, arg database.SetAccountStatusParams) (database.Account, error)
}

func (m *mockAccountStore) GetAccountByID(ctx context.Context, id uuid.UUID) (database.Account, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return database.Account{}, pgx.ErrNoRows
}

func (m *mockAccountStore) ListAccounts(ctx context.Context, arg database.ListAccountsParams) ([]database.Account, error) {
	if m.listFn != nil {
		return m.listFn(ctx, arg)
	}
	return []database.Account{}, nil
}

func (m *mockAccountStore) CreateAccount(ctx context.Context, arg database.CreateAccountParams) (database.Account, error) {
	if m.createFn != nil {
		return m.createFn(ctx, arg)
	}
	return database.Account{}, pgx.ErrNoRows
}

func (m *mockAccountStore) UpdateAccount(ctx context.Context, arg database.UpdateAccountParams) (database.Account, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, arg)
	}
	return database.Account{}, pgx.ErrNoRows
}

func (m *mockAccountStore) SetAccountStatus(ctx context.Context, arg database.SetAccountStatusParams) (database.Account, error) {
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, arg)
	}
	return database.Account{}, pgx.ErrNoRows
}

func setupAccountRouter(store *mockAccountStore) *chi.Mux {
	h := handler.NewAccountHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Use(middleware.RequireRole(enum.RoleSuperAdmin, enum.RoleAdmin))
	r.Route("/accounts", h.RegisterRoutes)
	return r
}

func TestAccountCreate_HashesPassword(t *testing.T) {
	store := &mockAccountStore{
		createFn: func(_ context.Context, arg database.CreateAccountParams) (database.Account, error) {
			if arg.HashedPassword == "pw123456" {
				t.Errorf("password stored in plaintext")
			}
			if err := bcrypt.CompareHashAndPassword([]byte(arg.HashedPassword), []byte("pw123456")); err != nil {
				t.Errorf("stored hash does not match password: %v", err)
			}
			if arg.UserID == "" {
				t.Errorf("user_id: got empty, want generated")
			}
			return database.Account{
				ID:        uuid.New(),
				UserID:    arg.UserID,
				Email:     arg.Email,
				Role:      arg.Role,
				Status:    enum.AccountStatusActive,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		},
	}
	router := setupAccountRouter(store)

	body := map[string]string{
		"email":    "teller@school.edu.ph",
		"password": "pw123456",
		"role":     "ACCOUNTANT",
	}
	rr := doAuthRequest(t, router, http.MethodPost, "/accounts/", body, staffClaims(enum.RoleSuperAdmin))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["role"] != "ACCOUNTANT" {
		t.Errorf("role: got %v, want ACCOUNTANT", resp["role"])
	}
	if _, exposed := resp["hashed_password"]; exposed {
		t.Errorf("hashed_password leaked in response")
	}
}

func TestAccountCreate_InvalidRole(t *testing.T) {
	router := setupAccountRouter(&mockAccountStore{})

	body := map[string]string{
		"email":    "teller@school.edu.ph",
		"password": "pw123456",
		"role":     "CASHIER",
	}
	rr := doAuthRequest(t, router, http.MethodPost, "/accounts/", body, staffClaims(enum.RoleSuperAdmin))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestAccountList_RoleFilter(t *testing.T) {
	store := &mockAccountStore{
		listFn: func(_ context.Context, arg database.ListAccountsParams) ([]database.Account, error) {
			if !arg.Role.Valid || arg.Role.String != enum.RoleCustomer {
				t.Errorf("role filter: got %+v, want CUSTOMER", arg.Role)
			}
			return []database.Account{{
				ID:     uuid.New(),
				UserID: "guardian-1",
				Email:  "parent@example.com",
				Role:   enum.RoleCustomer,
				Status: enum.AccountStatusActive,
				ParentFullname: pgtype.Text{String: "Jose Rizal Sr.", Valid: true},
			}}, nil
		},
	}
	router := setupAccountRouter(store)

	rr := doAuthRequest(t, router, http.MethodGet, "/accounts/?role=CUSTOMER", nil, staffClaims(enum.RoleAdmin))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestAccountList_ForbiddenForAccountant(t *testing.T) {
	router := setupAccountRouter(&mockAccountStore{})

	rr := doAuthRequest(t, router, http.MethodGet, "/accounts/", nil, staffClaims(enum.RoleAccountant))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusForbidden, rr.Body.String())
	}
}

func TestAccountSetStatus_Disable(t *testing.T) {
	accountID := uuid.New()
	store := &mockAccountStore{
		setStatusFn: func(_ context.Context, arg database.SetAccountStatusParams) (database.Account, error) {
			if arg.Status != enum.AccountStatusDisabled {
				t.Errorf("status: got %v, want DISABLED", arg.Status)
			}
			return database.Account{ID: arg.ID, Status: arg.Status, Role: enum.RoleAccountant}, nil
		},
	}
	router := setupAccountRouter(store)

	body := map[string]string{"status": "DISABLED"}
	rr := doAuthRequest(t, router, http.MethodPost, "/accounts/"+accountID.String()+"/status", body, staffClaims(enum.RoleSuperAdmin))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["status"] != "DISABLED" {
		t.Errorf("status: got %v, want DISABLED", resp["status"])
	}
}

func TestAccountSetStatus_InvalidValue(t *testing.T) {
	router := setupAccountRouter(&mockAccountStore{})

	body := map[string]string{"status": "SUSPENDED"}
	rr := doAuthRequest(t, router, http.MethodPost, "/accounts/"+uuid.NewString()+"/status", body, staffClaims(enum.RoleSuperAdmin))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestAccountUpdate_NotFound(t *testing.T) {
	router := setupAccountRouter(&mockAccountStore{})

	body := map[string]string{"email": "x@school.edu.ph", "role": "ADMIN"}
	rr := doAuthRequest(t, router, http.MethodPut, "/accounts/"+uuid.NewString()+"/", body, staffClaims(enum.RoleSuperAdmin))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNotFound, rr.Body.String())
	}
}
