package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaelruiz9024/fraud-dashboard/internal/backend"
	"github.com/gaelruiz9024/fraud-dashboard/internal/handler"
	"github.com/gaelruiz9024/fraud-dashboard/internal/session"
	"github.com/gaelruiz9024/fraud-dashboard/internal/triage"
	"github.com/gaelruiz9024/fraud-dashboard/pkg/pagepreview"
)

type fakeSession struct {
	state      session.State
	loginErr   error
	loginCalls int
	logouts    int
}

func (f *fakeSession) Login(ctx context.Context, correo, contrasena string) error {
	f.loginCalls++
	return f.loginErr
}

func (f *fakeSession) Logout() {
	f.logouts++
	f.state = session.State{}
}

func (f *fakeSession) State() session.State { return f.state }

func (f *fakeSession) Wait(ctx context.Context) error { return nil }

type fakeService struct {
	handler.Service

	reports []backend.Report
	calls   int
}

func (f *fakeService) Reports(ctx context.Context, _ triage.ReportFilter) ([]backend.Report, error) {
	f.calls++
	return f.reports, nil
}

func (f *fakeService) UpdateReportStatus(ctx context.Context, id int, estado string) error {
	f.calls++
	return nil
}

func (f *fakeService) UpdateCategory(ctx context.Context, id int, nombre string, descripcion *string, activa int) error {
	f.calls++
	return nil
}

func (f *fakeService) DeleteUser(ctx context.Context, id int) error {
	f.calls++
	return nil
}

func (f *fakeService) Preview(ctx context.Context, id int) (pagepreview.Preview, error) {
	f.calls++
	return pagepreview.Preview{Title: "preview"}, nil
}

func adminState() session.State {
	return session.State{
		Identity:        &backend.UserProfile{ID: "u1", Correo: "admin@x.com", IDRol: 1},
		IsAuthenticated: true,
		IsAdmin:         true,
	}
}

func newTestServer(t *testing.T, sess *fakeSession, svc *fakeService) *httptest.Server {
	t.Helper()
	mx := chi.NewRouter()
	handler.NewHandlers(sess, svc).Register(mx)
	srv := httptest.NewServer(mx)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestGuardRejectsAnonymous(t *testing.T) {
	srv := newTestServer(t, &fakeSession{}, &fakeService{})

	resp := doJSON(t, http.MethodGet, srv.URL+"/admin/reports", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body struct {
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, session.LoginRoute, body.Redirect)
}

func TestGuardRejectsNonAdmin(t *testing.T) {
	sess := &fakeSession{state: session.State{
		Identity:        &backend.UserProfile{ID: "u2", IDRol: 2},
		IsAuthenticated: true,
	}}
	srv := newTestServer(t, sess, &fakeService{})

	resp := doJSON(t, http.MethodGet, srv.URL+"/admin/reports", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReportsList(t *testing.T) {
	svc := &fakeService{reports: []backend.Report{{ID: 1, Estado: backend.StatusPending}}}
	srv := newTestServer(t, &fakeSession{state: adminState()}, svc)

	resp := doJSON(t, http.MethodGet, srv.URL+"/admin/reports", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reports []backend.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reports))
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].ID)
}

func TestUpdateReportStatusRequiresConfirmation(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, &fakeSession{state: adminState()}, svc)

	resp := doJSON(t, http.MethodPut, srv.URL+"/admin/reports/7/status", `{"estado":"Aprobado"}`)
	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
	assert.Equal(t, 0, svc.calls)

	resp = doJSON(t, http.MethodPut, srv.URL+"/admin/reports/7/status", `{"estado":"Aprobado","confirm":true}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, svc.calls)
}

func TestUpdateCategoryRequiresConfirmation(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, &fakeSession{state: adminState()}, svc)

	resp := doJSON(t, http.MethodPut, srv.URL+"/admin/categories/3", `{"nombre":"Phishing","activa":1}`)
	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
	assert.Equal(t, 0, svc.calls)
}

func TestDeleteUserRequiresConfirmation(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, &fakeSession{state: adminState()}, svc)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/admin/users/5", "")
	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
	assert.Equal(t, 0, svc.calls)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/admin/users/5?confirm=true", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, svc.calls)
}

func TestLogin(t *testing.T) {
	sess := &fakeSession{}
	srv := newTestServer(t, sess, &fakeService{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/session/login", `{"correo":"admin@x.com","contrasena":"secret1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, sess.loginCalls)
}

func TestLoginInvalidCredentials(t *testing.T) {
	sess := &fakeSession{loginErr: backend.ErrInvalidCredentials}
	srv := newTestServer(t, sess, &fakeService{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/session/login", `{"correo":"admin@x.com","contrasena":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginValidationError(t *testing.T) {
	sess := &fakeSession{loginErr: &backend.ValidationError{Field: "correo", Reason: "must not be empty"}}
	srv := newTestServer(t, sess, &fakeService{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/session/login", `{"contrasena":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	sess := &fakeSession{state: adminState()}
	srv := newTestServer(t, sess, &fakeService{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/session/logout", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, sess.logouts)

	var body struct {
		IsAuthenticated bool `json:"isAuthenticated"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.IsAuthenticated)
}

func TestSessionState(t *testing.T) {
	srv := newTestServer(t, &fakeSession{state: session.State{LoadingTokens: true}}, &fakeService{})

	resp := doJSON(t, http.MethodGet, srv.URL+"/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		LoadingTokens   bool `json:"loadingTokens"`
		IsAuthenticated bool `json:"isAuthenticated"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.LoadingTokens)
	assert.False(t, body.IsAuthenticated)
}
