//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uniformhub/api/internal/config"
	"github.com/uniformhub/api/internal/database"
	"github.com/uniformhub/api/internal/router"
	"github.com/uniformhub/api/internal/ws"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationFlow exercises the full order lifecycle against a real
// PostgreSQL database, with all handlers wired through the router.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		Port:        "8082",
		DatabaseURL: connStr,
		JWTSecret:   "integration-test-secret",
	}
	queries := database.New(pool)
	hub := ws.NewHub()
	// NOTE: hub.Run() goroutine leaks on test exit — Hub has no shutdown mechanism.
	// Acceptable for tests; production should add context-based shutdown.
	go hub.Run()

	r := router.New(cfg, queries, pool, hub)

	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Bootstrap super admin (manual DB insert, same as cmd/seed) ---
	createSuperAdmin(t, ctx, pool)

	// --- 2. Login as super admin ---
	adminToken := login(t, server, "admin@test.com", "password123")

	// --- 3. Create accountant and customer accounts through the API ---
	accountantResp := createAccount(t, server, adminToken, map[string]string{
		"email":    "accountant@test.com",
		"password": "password123",
		"role":     "ACCOUNTANT",
	})
	if accountantResp["role"].(string) != "ACCOUNTANT" {
		t.Fatalf("accountant role: got %v", accountantResp["role"])
	}

	customerResp := createAccount(t, server, adminToken, map[string]string{
		"email":           "parent@test.com",
		"password":        "password123",
		"role":            "CUSTOMER",
		"parent_fullname": "Maria Santos",
	})
	guardianUserID := customerResp["user_id"].(string)

	accountantToken := login(t, server, "accountant@test.com", "password123")
	customerToken := login(t, server, "parent@test.com", "password123")

	// --- 4. Admin creates a catalog item with a size ladder ---
	itemResp := doJSON(t, server, http.MethodPost, "/items", adminToken, map[string]interface{}{
		"item_code": "POLO-01",
		"category":  "Polo",
		"gender":    "UNISEX",
		"sizes": []map[string]string{
			{"size": "S", "price": "90.00"},
			{"size": "M", "price": "100.00"},
		},
	}, http.StatusCreated)
	if len(itemResp["sizes"].([]interface{})) != 2 {
		t.Fatalf("item sizes: got %v, want 2", itemResp["sizes"])
	}

	// --- 5. Customer registers a student ---
	doJSON(t, server, http.MethodPost, "/students", customerToken, map[string]string{
		"full_name":   "Juan Santos",
		"grade_level": "Grade 3",
		"section":     "Sampaguita",
	}, http.StatusCreated)

	// --- 6. Customer places an order: 2x100 + 1x50 = 250 ---
	orderResp := doJSON(t, server, http.MethodPost, "/orders", customerToken, map[string]interface{}{
		"requested_by":   guardianUserID,
		"payment_method": "CASH",
		"items": []map[string]interface{}{
			{"item_code": "POLO-01", "category": "Polo", "size": "M", "quantity": 2, "price": "100.00"},
			{"item_code": "PANTS-02", "category": "Pants", "size": "M", "quantity": 1, "price": "50.00"},
		},
	}, http.StatusCreated)
	orderID := uuid.MustParse(orderResp["id"].(string))
	orderNumber := orderResp["order_number"].(string)
	if orderResp["status"].(string) != "TO_PAY" {
		t.Fatalf("new order status: got %v, want TO_PAY", orderResp["status"])
	}
	if orderResp["total"].(string) != "250.00" {
		t.Fatalf("order total: got %v, want 250.00 (derived, not client-supplied)", orderResp["total"])
	}

	// --- 7. Customer cannot confirm payments ---
	doJSON(t, server, http.MethodPost, "/orders/"+orderID.String()+"/confirm-payment", customerToken, nil, http.StatusForbidden)

	// --- 8. Accountant confirms payment: TO_PAY -> TO_RECEIVE ---
	paidResp := doJSON(t, server, http.MethodPost, "/orders/"+orderID.String()+"/confirm-payment", accountantToken, nil, http.StatusOK)
	if paidResp["status"].(string) != "TO_RECEIVE" {
		t.Fatalf("status after payment: got %v, want TO_RECEIVE", paidResp["status"])
	}
	if paidResp["paid_at"] == nil {
		t.Fatalf("paid_at not stamped")
	}

	// --- 9. Double confirmation is rejected with the actual status ---
	conflictResp := doJSON(t, server, http.MethodPost, "/orders/"+orderID.String()+"/confirm-payment", accountantToken, nil, http.StatusConflict)
	if conflictResp["status"].(string) != "TO_RECEIVE" {
		t.Fatalf("conflict status: got %v, want TO_RECEIVE", conflictResp["status"])
	}

	// --- 10. Admin schedules the pickup; email is composed ---
	scheduleResp := doJSON(t, server, http.MethodPost, "/orders/"+orderID.String()+"/schedule", adminToken, map[string]string{
		"scheduled_date": time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	}, http.StatusOK)
	email := scheduleResp["email"].(map[string]interface{})
	if email["to"].(string) != "parent@test.com" {
		t.Fatalf("schedule email to: got %v, want parent@test.com", email["to"])
	}
	if !strings.Contains(email["body"].(string), "₱250.00") {
		t.Fatalf("schedule email body missing peso total: %v", email["body"])
	}

	// --- 11. Scanned delivery confirmation: TO_RECEIVE -> COMPLETED ---
	scanResp := doJSON(t, server, http.MethodPost, "/orders/scan", adminToken, map[string]string{
		"code":   orderNumber,
		"action": "delivery",
	}, http.StatusOK)
	if scanResp["status"].(string) != "COMPLETED" {
		t.Fatalf("status after scan: got %v, want COMPLETED", scanResp["status"])
	}
	if scanResp["received_via_scan"].(bool) != true {
		t.Fatalf("received_via_scan: got false, want true")
	}

	// --- 12. Detail view: derived total and requester name ---
	detail := doJSON(t, server, http.MethodGet, "/orders/"+orderID.String(), accountantToken, nil, http.StatusOK)
	if detail["total_display"].(string) != "₱250.00" {
		t.Fatalf("total_display: got %v, want ₱250.00", detail["total_display"])
	}
	if detail["requester_name"].(string) != "Maria Santos" {
		t.Fatalf("requester_name: got %v, want Maria Santos", detail["requester_name"])
	}

	// --- 13. Reports reflect the completed order ---
	summary := doJSONList(t, server, http.MethodGet, "/reports/status-summary", accountantToken, http.StatusOK)
	foundCompleted := false
	for _, row := range summary {
		m := row.(map[string]interface{})
		if m["status"] == "COMPLETED" {
			foundCompleted = true
			if m["total_revenue"].(string) != "250.00" {
				t.Fatalf("completed revenue: got %v, want 250.00", m["total_revenue"])
			}
		}
	}
	if !foundCompleted {
		t.Fatalf("status summary missing COMPLETED row: %v", summary)
	}

	// --- 14. CSV export includes the order with its derived total ---
	csvBody := doRaw(t, server, http.MethodGet, "/reports/export", accountantToken, http.StatusOK)
	if !strings.Contains(csvBody, orderNumber+","+guardianUserID+",COMPLETED,CASH,250.00,") {
		t.Fatalf("csv export missing order row:\n%s", csvBody)
	}

	t.Logf("Integration test passed: container=%s, order=%s (%s)",
		pgContainer.GetContainerID(), orderID, orderNumber)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("uniform_test"),
		tcpostgres.WithUsername("uniform"),
		tcpostgres.WithPassword("uniform"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	// Connect with stdlib for migrate
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this test file's package directory (internal/handler/).
	// Go test sets cwd to the package directory.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func createSuperAdmin(t *testing.T, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var id uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO accounts (user_id, email, hashed_password, role, status)
		 VALUES ($1, $2, $3, 'SUPER_ADMIN', 'ACTIVE')
		 RETURNING id`,
		uuid.NewString(), "admin@test.com", string(hashedPassword),
	).Scan(&id)
	if err != nil {
		t.Fatalf("create super admin: %v", err)
	}
	return id
}

// --- Request helpers ---

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	resp := doJSON(t, server, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, http.StatusOK)
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("login %s: missing access_token in %v", email, resp)
	}
	return token
}

func createAccount(t *testing.T, server *httptest.Server, token string, body map[string]string) map[string]interface{} {
	t.Helper()
	return doJSON(t, server, http.MethodPost, "/accounts", token, body, http.StatusCreated)
}

func doJSON(t *testing.T, server *httptest.Server, method, path, token string, body interface{}, wantStatus int) map[string]interface{} {
	t.Helper()
	raw := doRawRequest(t, server, method, path, token, body, wantStatus)
	var resp map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal([]byte(raw), &resp); err != nil {
			t.Fatalf("%s %s: decode response: %v\n%s", method, path, err, raw)
		}
	}
	return resp
}

func doJSONList(t *testing.T, server *httptest.Server, method, path, token string, wantStatus int) []interface{} {
	t.Helper()
	raw := doRawRequest(t, server, method, path, token, nil, wantStatus)
	var resp []interface{}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("%s %s: decode list response: %v\n%s", method, path, err, raw)
	}
	return resp
}

func doRaw(t *testing.T, server *httptest.Server, method, path, token string, wantStatus int) string {
	t.Helper()
	return doRawRequest(t, server, method, path, token, nil, wantStatus)
}

func doRawRequest(t *testing.T, server *httptest.Server, method, path, token string, body interface{}, wantStatus int) string {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status got %d, want %d; body: %s", method, path, resp.StatusCode, wantStatus, buf.String())
	}
	return buf.String()
}
