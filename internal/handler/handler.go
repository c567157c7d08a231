package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/gaelruiz9024/fraud-dashboard/internal/backend"
	"github.com/gaelruiz9024/fraud-dashboard/internal/handler/internal/request"
	"github.com/gaelruiz9024/fraud-dashboard/internal/handler/internal/respond"
	"github.com/gaelruiz9024/fraud-dashboard/internal/handler/mw/guard"
	"github.com/gaelruiz9024/fraud-dashboard/internal/session"
	"github.com/gaelruiz9024/fraud-dashboard/internal/triage"
	"github.com/gaelruiz9024/fraud-dashboard/pkg/pagepreview"
)

// Session is what the handlers need from the session guard.
type Session interface {
	Login(ctx context.Context, correo, contrasena string) error
	Logout()
	State() session.State
	Wait(ctx context.Context) error
}

// Service is the triage service surface backing the admin pages.
type Service interface {
	Reports(ctx context.Context, f triage.ReportFilter) ([]backend.Report, error)
	UpdateReportStatus(ctx context.Context, id int, estado string) error
	Preview(ctx context.Context, id int) (pagepreview.Preview, error)
	Categories(ctx context.Context) ([]backend.Category, error)
	CreateCategory(ctx context.Context, nombre string, descripcion *string, activa int) (backend.Category, error)
	UpdateCategory(ctx context.Context, id int, nombre string, descripcion *string, activa int) error
	Users(ctx context.Context) ([]backend.User, error)
	UpdateUserRole(ctx context.Context, id, idRol int) error
	DeleteUser(ctx context.Context, id int) error
	ReportsByCategory(ctx context.Context) ([]backend.ReportsByCategory, error)
	StatusPercentage(ctx context.Context) ([]backend.StatusPercentage, error)
	HistoricalTrends(ctx context.Context) ([]backend.HistoricalReportData, error)
}

type Handlers struct {
	session Session
	svc     Service
}

func NewHandlers(session Session, svc Service) *Handlers {
	return &Handlers{session: session, svc: svc}
}

func (h *Handlers) Register(mx chi.Router) {
	mx.Post("/session/login", h.Login)
	mx.Post("/session/logout", h.Logout)
	mx.Get("/session", h.Session)

	g := guard.New(h.session)
	mx.Route("/admin", func(r chi.Router) {
		r.Use(g.RequireAdmin)
		r.Get("/reports", h.Reports)
		r.Put("/reports/{id}/status", h.UpdateReportStatus)
		r.Get("/reports/{id}/preview", h.ReportPreview)
		r.Get("/categories", h.Categories)
		r.Post("/categories", h.CreateCategory)
		r.Put("/categories/{id}", h.UpdateCategory)
		r.Get("/users", h.Users)
		r.Put("/users/{id}/role", h.UpdateUserRole)
		r.Delete("/users/{id}", h.DeleteUser)
		r.Get("/trends/by-category", h.TrendsByCategory)
		r.Get("/trends/status", h.TrendsStatus)
		r.Get("/trends/historical", h.TrendsHistorical)
	})
}

type LoginRequest struct {
	Correo     string `json:"correo"`
	Contrasena string `json:"contrasena"`
}

type SessionResponse struct {
	Identity        *backend.UserProfile `json:"identity,omitempty"`
	IsAuthenticated bool                 `json:"isAuthenticated"`
	IsAdmin         bool                 `json:"isAdmin"`
	LoadingTokens   bool                 `json:"loadingTokens"`
}

func sessionResponse(st session.State) SessionResponse {
	return SessionResponse{
		Identity:        st.Identity,
		IsAuthenticated: st.IsAuthenticated,
		IsAdmin:         st.IsAdmin,
		LoadingTokens:   st.LoadingTokens,
	}
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	err := h.session.Login(r.Context(), req.Correo, req.Contrasena)
	if err != nil {
		if ve, ok := backend.AsValidationError(err); ok {
			respond.ErrorWithText(w, http.StatusBadRequest, respond.CODE_VALIDATION_FAILED, ve.Error())
			return
		}
		if errors.Cause(err) == backend.ErrInvalidCredentials {
			respond.ErrorWithCode(w, http.StatusUnauthorized, respond.CODE_INVALID_CREDENTIALS)
			return
		}
		respond.ErrorWithText(w, http.StatusBadGateway, respond.CODE_BACKEND_UNAVAILABLE, "could not reach the backend")
		return
	}
	respond.JSON(w, sessionResponse(h.session.State()))
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout()
	respond.JSON(w, sessionResponse(h.session.State()))
}

func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, sessionResponse(h.session.State()))
}

// respondServiceError maps triage/backend failures onto the wire. Plain
// fetch failures never force a logout; only the recovery transport's own
// failure path does that.
func respondServiceError(w http.ResponseWriter, err error) {
	if ve, ok := backend.AsValidationError(err); ok {
		respond.ErrorWithText(w, http.StatusBadRequest, respond.CODE_VALIDATION_FAILED, ve.Error())
		return
	}
	switch errors.Cause(err) {
	case backend.ErrSessionExpired:
		respond.ErrorWithRedirect(w, http.StatusUnauthorized, respond.CODE_SESSION_EXPIRED, session.LoginRoute)
	case backend.ErrForbidden:
		respond.ErrorWithCode(w, http.StatusForbidden, respond.CODE_FORBIDDEN)
	case backend.ErrNotFound:
		respond.ErrorWithCode(w, http.StatusNotFound, respond.CODE_NOT_FOUND)
	default:
		respond.ErrorWithText(w, http.StatusBadGateway, respond.CODE_BACKEND_UNAVAILABLE, err.Error())
	}
}
