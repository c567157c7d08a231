package triage

import (
	"context"
	"strconv"
	"strings"

	"github.com/gaelruiz9024/fraud-dashboard/internal/backend"
	"github.com/gaelruiz9024/fraud-dashboard/pkg/pagepreview"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// API is the slice of the backend client the triage service consumes.
type API interface {
	AllReports(ctx context.Context) ([]backend.Report, error)
	UpdateReportStatus(ctx context.Context, id int, estado string) error
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

type Notifier interface {
	ReportStatusChanged(reportID int, estado string)
}

type PreviewFetcher interface {
	Fetch(ctx context.Context, link string) (pagepreview.Preview, error)
}

// Service holds the triage operations behind the dashboard: report review,
// category and user management, trend charts. It owns no durable state;
// everything is re-fetched from the backend.
type Service struct {
	api      API
	previews PreviewFetcher
	notifier Notifier
}

func NewService(api API, previews PreviewFetcher, notifier Notifier) *Service {
	return &Service{api: api, previews: previews, notifier: notifier}
}

// ReportFilter narrows the report list client-side. Empty fields match
// everything.
type ReportFilter struct {
	ID        string
	Categoria string
	URL       string
}

// Reports returns reports matching the filter, newest first.
func (s *Service) Reports(ctx context.Context, f ReportFilter) ([]backend.Report, error) {
	reports, err := s.api.AllReports(ctx)
	if err != nil {
		return nil, err
	}

	filtered := reports[:0]
	for _, r := range reports {
		if matchReport(r, f) {
			filtered = append(filtered, r)
		}
	}
	slices.SortFunc(filtered, func(a, b backend.Report) bool {
		return a.ID > b.ID
	})
	return filtered, nil
}

func matchReport(r backend.Report, f ReportFilter) bool {
	if f.ID != "" && strconv.Itoa(r.ID) != f.ID {
		return false
	}
	if f.Categoria != "" {
		id, err := strconv.Atoi(f.Categoria)
		if err != nil || r.IDCategoria == nil || *r.IDCategoria != id {
			return false
		}
	}
	if f.URL != "" && !strings.Contains(strings.ToLower(r.URLPagina), strings.ToLower(f.URL)) {
		return false
	}
	return true
}

var validStatuses = []string{backend.StatusPending, backend.StatusApproved, backend.StatusRejected}

func (s *Service) UpdateReportStatus(ctx context.Context, id int, estado string) error {
	if !slices.Contains(validStatuses, estado) {
		return &backend.ValidationError{Field: "estado", Reason: "must be one of " + strings.Join(validStatuses, ", ")}
	}
	if err := s.api.UpdateReportStatus(ctx, id, estado); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.ReportStatusChanged(id, estado)
	}
	return nil
}

// Preview fetches the reported page and extracts a short summary for the
// triage view.
func (s *Service) Preview(ctx context.Context, id int) (pagepreview.Preview, error) {
	reports, err := s.api.AllReports(ctx)
	if err != nil {
		return pagepreview.Preview{}, err
	}
	for _, r := range reports {
		if r.ID != id {
			continue
		}
		if r.URLPagina == "" {
			return pagepreview.Preview{}, errors.Errorf("report %d has no reported page", id)
		}
		return s.previews.Fetch(ctx, r.URLPagina)
	}
	return pagepreview.Preview{}, errors.Wrapf(backend.ErrNotFound, "report %d", id)
}

func (s *Service) Categories(ctx context.Context) ([]backend.Category, error) {
	categories, err := s.api.Categories(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(categories, func(a, b backend.Category) bool {
		return a.Nombre < b.Nombre
	})
	return categories, nil
}

func (s *Service) CreateCategory(ctx context.Context, nombre string, descripcion *string, activa int) (backend.Category, error) {
	if err := validateCategory(nombre, activa); err != nil {
		return backend.Category{}, err
	}
	return s.api.CreateCategory(ctx, nombre, descripcion, activa)
}

func (s *Service) UpdateCategory(ctx context.Context, id int, nombre string, descripcion *string, activa int) error {
	if err := validateCategory(nombre, activa); err != nil {
		return err
	}
	return s.api.UpdateCategory(ctx, id, nombre, descripcion, activa)
}

func validateCategory(nombre string, activa int) error {
	if strings.TrimSpace(nombre) == "" {
		return &backend.ValidationError{Field: "nombre", Reason: "must not be empty"}
	}
	if activa != 0 && activa != 1 {
		return &backend.ValidationError{Field: "activa", Reason: "must be 0 or 1"}
	}
	return nil
}

func (s *Service) Users(ctx context.Context) ([]backend.User, error) {
	users, err := s.api.Users(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(users, func(a, b backend.User) bool {
		return a.ID < b.ID
	})
	return users, nil
}

func (s *Service) UpdateUserRole(ctx context.Context, id, idRol int) error {
	if idRol != 1 && idRol != 2 {
		return &backend.ValidationError{Field: "idRol", Reason: "must be 1 (admin) or 2 (user)"}
	}
	return s.api.UpdateUserRole(ctx, id, idRol)
}

func (s *Service) DeleteUser(ctx context.Context, id int) error {
	return s.api.DeleteUser(ctx, id)
}

func (s *Service) ReportsByCategory(ctx context.Context) ([]backend.ReportsByCategory, error) {
	return s.api.ReportsByCategory(ctx)
}

func (s *Service) StatusPercentage(ctx context.Context) ([]backend.StatusPercentage, error) {
	return s.api.StatusPercentage(ctx)
}

func (s *Service) HistoricalTrends(ctx context.Context) ([]backend.HistoricalReportData, error) {
	return s.api.HistoricalTrends(ctx)
}
