package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gaelruiz9024/fraud-dashboard/internal/backend"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var req struct {
			Correo     string `json:"correo"`
			Contrasena string `json:"contrasena"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Correo != "admin@x.com" || req.Contrasena != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "A1", "refreshToken": "R1"})
	}))
	defer srv.Close()

	cli := backend.NewClient(srv.URL, newTestStore(t))

	pair, err := cli.Login(context.Background(), "admin@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "A1", pair.AccessToken)
	assert.Equal(t, "R1", pair.RefreshToken)

	_, err = cli.Login(context.Background(), "admin@x.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, backend.ErrInvalidCredentials, errors.Cause(err))
}

func TestAllReports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reports/admin/all-reports", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"id": 2, "idUsuario": 5, "titulo": "Phishing", "descripcion": "fake bank page", "urlPagina": "https://bad.example", "fechaCreacion": "2024-03-01", "estado": "Pendiente", "idAdmin": null, "fechaRevision": null, "idCategoria": 3},
			{"id": 1, "idUsuario": 4, "titulo": "Scam shop", "descripcion": "never ships", "urlPagina": "https://shop.example", "fechaCreacion": "2024-02-20", "estado": "Aprobado", "idAdmin": 1, "fechaRevision": "2024-02-21", "idCategoria": null}
		]`)
	}))
	defer srv.Close()

	cli := backend.NewClient(srv.URL, newTestStore(t))
	reports, err := cli.AllReports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, 2, reports[0].ID)
	assert.Equal(t, backend.StatusPending, reports[0].Estado)
	require.NotNil(t, reports[0].IDCategoria)
	assert.Equal(t, 3, *reports[0].IDCategoria)
	assert.Nil(t, reports[0].IDAdmin)
	require.NotNil(t, reports[1].IDAdmin)
	assert.Equal(t, 1, *reports[1].IDAdmin)
}

func TestUpdateReportStatus(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(body)
	}))
	defer srv.Close()

	cli := backend.NewClient(srv.URL, newTestStore(t))
	err := cli.UpdateReportStatus(context.Background(), 42, backend.StatusRejected)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/reports/admin/update-status/42", gotPath)
	assert.JSONEq(t, `{"estado":"Rechazado"}`, gotBody)
}

func TestAnalyticsEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/analytics/reports-by-category":
			_, _ = io.WriteString(w, `[{"categoryName": "Phishing", "reportCount": 12}]`)
		case "/analytics/status-percentage":
			_, _ = io.WriteString(w, `[{"status": "Pendiente", "percentage": 62.5, "count": 10}]`)
		case "/analytics/historical-trends":
			_, _ = io.WriteString(w, `[{"date": "2024-03-01", "categoryName": "Phishing", "reportCount": 4}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cli := backend.NewClient(srv.URL, newTestStore(t))
	ctx := context.Background()

	byCategory, err := cli.ReportsByCategory(ctx)
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Phishing", byCategory[0].CategoryName)
	assert.Equal(t, 12, byCategory[0].ReportCount)

	percentages, err := cli.StatusPercentage(ctx)
	require.NoError(t, err)
	require.Len(t, percentages, 1)
	assert.Equal(t, 62.5, percentages[0].Percentage)

	trends, err := cli.HistoricalTrends(ctx)
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, "2024-03-01", trends[0].Date)
}

func TestForbiddenIsSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	cli := backend.NewClient(srv.URL, newTestStore(t))
	_, err := cli.Users(context.Background())
	require.Error(t, err)
	assert.Equal(t, backend.ErrForbidden, errors.Cause(err))
}
