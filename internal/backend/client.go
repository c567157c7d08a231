package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gaelruiz9024/fraud-dashboard/pkg/credstore"
	"github.com/pkg/errors"
)

// Client is a typed client for the triage backend. Every request goes
// through the bearer-attachment and 401-recovery transports.
type Client struct {
	baseURL  string
	httpCli  *http.Client
	recovery *recoveryTransport
}

func NewClient(baseURL string, store credstore.Store) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	chain, recovery := newTransportChain(store, baseURL)
	return &Client{
		baseURL: baseURL,
		httpCli: &http.Client{
			Timeout:   30 * time.Second,
			Transport: chain,
		},
		recovery: recovery,
	}
}

// OnForcedLogout injects the callback invoked when an expired session
// cannot be refreshed. Set once at startup by the session guard.
func (c *Client) OnForcedLogout(fn func()) {
	c.recovery.SetForcedLogout(fn)
}

type loginRequest struct {
	Correo     string `json:"correo"`
	Contrasena string `json:"contrasena"`
}

func (c *Client) Login(ctx context.Context, correo, contrasena string) (TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Correo: correo, Contrasena: contrasena}, &pair)
	if err != nil {
		switch errors.Cause(err) {
		case ErrSessionExpired, ErrForbidden:
			return TokenPair{}, ErrInvalidCredentials
		}
		if se, ok := asStatusError(err); ok && se.code == http.StatusBadRequest {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return TokenPair{}, errors.New("login response is missing tokens")
	}
	return pair, nil
}

// Refresh trades the refresh token for a new access token. The recovery
// transport does this on its own during 401 handling; this method exists
// for explicit calls.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var out refreshResponse
	err := c.do(ctx, http.MethodPost, refreshPath, refreshRequest{RefreshToken: refreshToken}, &out)
	if err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

type profileResponse struct {
	Profile UserProfile `json:"profile"`
}

func (c *Client) Profile(ctx context.Context) (UserProfile, error) {
	var out profileResponse
	err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &out)
	return out.Profile, err
}

func (c *Client) AllReports(ctx context.Context) ([]Report, error) {
	var out []Report
	err := c.do(ctx, http.MethodGet, "/reports/admin/all-reports", nil, &out)
	return out, err
}

type updateStatusRequest struct {
	Estado string `json:"estado"`
}

func (c *Client) UpdateReportStatus(ctx context.Context, id int, estado string) error {
	path := fmt.Sprintf("/reports/admin/update-status/%d", id)
	return c.do(ctx, http.MethodPut, path, updateStatusRequest{Estado: estado}, nil)
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := c.do(ctx, http.MethodGet, "/admin/categories", nil, &out)
	return out, err
}

type categoryRequest struct {
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	Activa      int     `json:"activa"`
}

func (c *Client) CreateCategory(ctx context.Context, nombre string, descripcion *string, activa int) (Category, error) {
	var out Category
	err := c.do(ctx, http.MethodPost, "/admin/categories", categoryRequest{Nombre: nombre, Descripcion: descripcion, Activa: activa}, &out)
	return out, err
}

func (c *Client) UpdateCategory(ctx context.Context, id int, nombre string, descripcion *string, activa int) error {
	path := fmt.Sprintf("/admin/categories/%d", id)
	return c.do(ctx, http.MethodPut, path, categoryRequest{Nombre: nombre, Descripcion: descripcion, Activa: activa}, nil)
}

func (c *Client) Users(ctx context.Context) ([]User, error) {
	var out []User
	err := c.do(ctx, http.MethodGet, "/admin/user/list", nil, &out)
	return out, err
}

type updateRoleRequest struct {
	IDRol int `json:"idRol"`
}

func (c *Client) UpdateUserRole(ctx context.Context, id, idRol int) error {
	path := fmt.Sprintf("/admin/user/%d/role", id)
	return c.do(ctx, http.MethodPut, path, updateRoleRequest{IDRol: idRol}, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	path := fmt.Sprintf("/admin/user/%d", id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ReportsByCategory(ctx context.Context) ([]ReportsByCategory, error) {
	var out []ReportsByCategory
	err := c.do(ctx, http.MethodGet, "/analytics/reports-by-category", nil, &out)
	return out, err
}

func (c *Client) StatusPercentage(ctx context.Context) ([]StatusPercentage, error) {
	var out []StatusPercentage
	err := c.do(ctx, http.MethodGet, "/analytics/status-percentage", nil, &out)
	return out, err
}

func (c *Client) HistoricalTrends(ctx context.Context) ([]HistoricalReportData, error) {
	var out []HistoricalReportData
	err := c.do(ctx, http.MethodGet, "/analytics/historical-trends", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "encoding %s %s request", method, path)
		}
		reqBody = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrapf(err, "building %s %s request", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return errors.Wrapf(err, "calling %s %s", method, path)
	}
	defer resp.Body.Close()

	if err := responseError(resp); err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}

// statusError carries a non-2xx status that has no dedicated sentinel.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.code, e.body)
}

func asStatusError(err error) (*statusError, bool) {
	se, ok := errors.Cause(err).(*statusError)
	return se, ok
}

func responseError(resp *http.Response) error {
	switch {
	case resp.StatusCode < http.StatusMultipleChoices:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrSessionExpired
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
}
