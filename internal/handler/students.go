package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/uniformhub/api/internal/database"
	"github.com/uniformhub/api/internal/enum"
	"github.com/uniformhub/api/internal/middleware"
)

// StudentStore defines the database methods needed by student handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type StudentStore interface {
	GetStudent(ctx context.Context, id uuid.UUID) (database.Student, error)
	ListStudentsByGuardian(ctx context.Context, guardianUserID string) ([]database.Student, error)
	CreateStudent(ctx context.Context, arg database.CreateStudentParams) (database.Student, error)
}

// StudentHandler handles student record endpoints.
type StudentHandler struct {
	store StudentStore
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(store StudentStore) *StudentHandler {
	return &StudentHandler{store: store}
}

// RegisterRoutes registers student endpoints on the given Chi router.
// Expected to be mounted at /students.
func (h *StudentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// --- Request / Response types ---

type createStudentRequest struct {
	GuardianUserID string `json:"guardian_user_id"`
	FullName       string `json:"full_name"`
	GradeLevel     string `json:"grade_level"`
	Section        string `json:"section"`
}

type studentResponse struct {
	ID             uuid.UUID `json:"id"`
	GuardianUserID string    `json:"guardian_user_id"`
	FullName       string    `json:"full_name"`
	GradeLevel     string    `json:"grade_level"`
	Section        string    `json:"section,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// --- Handlers ---

// Create handles POST /students. Customers can only register students under
// their own account; staff may set any guardian.
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.FullName == "" || req.GradeLevel == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "full_name and grade_level are required"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	guardian := req.GuardianUserID
	if claims.Role == enum.RoleCustomer || guardian == "" {
		guardian = claims.UserID
	}

	student, err := h.store.CreateStudent(r.Context(), database.CreateStudentParams{
		GuardianUserID: guardian,
		FullName:       req.FullName,
		GradeLevel:     req.GradeLevel,
		Section:        textOrNull(req.Section),
	})
	if err != nil {
		log.Printf("ERROR: create student: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbStudentToResponse(student))
}

// List handles GET /students. Customers see their own students; staff pass
// ?guardian= to inspect any account's list.
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	guardian := claims.UserID
	if claims.Role != enum.RoleCustomer {
		if g := r.URL.Query().Get("guardian"); g != "" {
			guardian = g
		}
	}

	students, err := h.store.ListStudentsByGuardian(r.Context(), guardian)
	if err != nil {
		log.Printf("ERROR: list students: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]studentResponse, len(students))
	for i, s := range students {
		resp[i] = dbStudentToResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /students/{id}.
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid student ID"})
		return
	}

	student, err := h.store.GetStudent(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "student not found"})
			return
		}
		log.Printf("ERROR: get student: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims != nil && claims.Role == enum.RoleCustomer && student.GuardianUserID != claims.UserID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "student not found"})
		return
	}

	writeJSON(w, http.StatusOK, dbStudentToResponse(student))
}

// --- Helpers ---

func dbStudentToResponse(s database.Student) studentResponse {
	return studentResponse{
		ID:             s.ID,
		GuardianUserID: s.GuardianUserID,
		FullName:       s.FullName,
		GradeLevel:     s.GradeLevel,
		Section:        s.Section.String,
		CreatedAt:      s.CreatedAt,
	}
}
