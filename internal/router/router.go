package router

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uniformhub/api/internal/config"
	"github.com/uniformhub/api/internal/database"
	"github.com/uniformhub/api/internal/enum"
	"github.com/uniformhub/api/internal/handler"
	mw "github.com/uniformhub/api/internal/middleware"
	"github.com/uniformhub/api/internal/service"
	"github.com/uniformhub/api/internal/ws"
)

// nameCacheTTL bounds how stale a requester display name can get on the
// order console before we re-read the account.
const nameCacheTTL = 5 * time.Minute

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket order feed (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	names := service.NewNameResolver(queries, nameCacheTTL)
	orderService := service.NewOrderService(queries, pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	orderHandler := handler.NewOrderHandler(orderService, queries, names, queries, hub)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Order intake is open to customers; the rest of /orders is staff-only.
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.Create)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleAccountant, enum.RoleSuperAdmin))
				r.Get("/", orderHandler.List)
				r.Post("/resolve", orderHandler.Resolve)
				r.Post("/scan", orderHandler.ScanConfirm)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", orderHandler.Get)
					r.Post("/confirm-payment", orderHandler.ConfirmPayment)
					r.Post("/confirm-delivery", orderHandler.ConfirmDelivery)
					r.Post("/confirm-return", orderHandler.ConfirmReturn)
					r.Post("/schedule", orderHandler.Schedule)
				})
			})
		})

		// Reports: staff only.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleAccountant, enum.RoleSuperAdmin))
			reportsHandler := handler.NewReportsHandler(queries)
			r.Route("/reports", reportsHandler.RegisterRoutes)
		})

		// Account management: SUPER_ADMIN and ADMIN only.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleSuperAdmin, enum.RoleAdmin))
			accountHandler := handler.NewAccountHandler(queries)
			r.Route("/accounts", accountHandler.RegisterRoutes)
		})

		// Catalog: reads for everyone signed in, writes for ADMIN and up.
		itemHandler := handler.NewItemHandler(queries, pool, func(db database.DBTX) handler.ItemStore {
			return database.New(db)
		})
		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.List)
			r.Get("/{id}", itemHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleSuperAdmin))
				r.Post("/", itemHandler.Create)
				r.Put("/{id}", itemHandler.Update)
				r.Delete("/{id}", itemHandler.Delete)
			})
		})

		// Students: customers manage their own, staff can look up any.
		studentHandler := handler.NewStudentHandler(queries)
		r.Route("/students", studentHandler.RegisterRoutes)
	})

	log.Println("Router initialized with all handlers")
	return r
}
