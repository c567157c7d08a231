package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gaelruiz9024/fraud-dashboard/internal/handler/internal/request"
	"github.com/gaelruiz9024/fraud-dashboard/internal/handler/internal/respond"
	"github.com/gaelruiz9024/fraud-dashboard/internal/triage"
)

func (h *Handlers) Reports(w http.ResponseWriter, r *http.Request) {
	filter := triage.ReportFilter{
		ID:        r.URL.Query().Get("id"),
		Categoria: r.URL.Query().Get("categoria"),
		URL:       r.URL.Query().Get("url"),
	}
	reports, err := h.svc.Reports(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond.JSON(w, reports)
}

type UpdateReportStatusRequest struct {
	Estado  string `json:"estado"`
	Confirm bool   `json:"confirm"`
}

func (h *Handlers) UpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateReportStatusRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	// declined confirmation never reaches the backend
	if !req.Confirm {
		respond.ErrorWithText(w, http.StatusPreconditionRequired, respond.CODE_CONFIRMATION_REQUIRED,
			"confirm the status change for report #"+strconv.Itoa(id))
		return
	}
	if err := h.svc.UpdateReportStatus(r.Context(), id, req.Estado); err != nil {
		respondServiceError(w, err)
		return
	}
	respond.JSON(w, map[string]string{"estado": req.Estado})
}

func (h *Handlers) ReportPreview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	preview, err := h.svc.Preview(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond.JSON(w, preview)
}

func (h *Handlers) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond.JSON(w, categories)
}

type CategoryRequest struct {
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	Activa      int     `json:"activa"`
	Confirm     bool    `json:"confirm"`
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	category, err := h.svc.CreateCategory(r.Context(), req.Nombre, req.Descripcion, req.Activa)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond.JSON(w, category)
}

func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req CategoryRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	if !req.Confirm {
		respond.ErrorWithText(w, http.StatusPreconditionRequired, respond.CODE_CONFIRMATION_REQUIRED,
			"confirm the update of category #"+strconv.Itoa(id))
		return
	}
	if err := h.svc.UpdateCategory(r.Context(), id, req.Nombre, req.Descripcion, req.Activa); err != nil {
		respondServiceError(w, err)
		return
	}
	respond.JSON(w, map[string]int{"id": id})
}

func (h *Handlers) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Users(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond.JSON(w, users)
}

type UpdateUserRoleRequest struct {
	IDRol int `json:"idRol"`
}

func (h *Handlers) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateUserRoleRequest
	if err := request.DecodeJSON(r.Body, &req); err != nil {
		respond.ErrorWithCode(w, http.StatusBadRequest, respond.CODE_INVALID_JSON)
		return
	}
	if err := h.svc.UpdateUserRole(r.Context(), id, req.IDRol); err != nil {
		respondServiceError(w, err)
		return
	}
	respond.JSON(w, map[string]int{"id": id, "idRol": req.IDRol})
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("confirm") != "true" {
		respond.ErrorWithText(w, http.StatusPreconditionRequired, respond.CODE_CONFIRMATION_REQUIRED,
			"confirm the deletion of user #"+strconv.Itoa(id))
		return
	}
	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respond.JSON(w, map[string]int{"id": id})
}

func (h *Handlers) TrendsByCategory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ReportsByCategory(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond.JSON(w, rows)
}

func (h *Handlers) TrendsStatus(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.StatusPercentage(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond.JSON(w, rows)
}

func (h *Handlers) TrendsHistorical(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.HistoricalTrends(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond.JSON(w, rows)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respond.ErrorWithText(w, http.StatusBadRequest, respond.CODE_VALIDATION_FAILED, "id must be numeric")
		return 0, false
	}
	return id, true
}
