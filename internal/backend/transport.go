package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gaelruiz9024/fraud-dashboard/pkg/credstore"
	"github.com/pkg/errors"
)

const refreshPath = "/auth/refresh"

// authTransport attaches the stored access token as a bearer credential.
// Requests without a stored token are sent unmodified.
type authTransport struct {
	store credstore.Store
	next  http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.store.AccessToken(); token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return t.next.RoundTrip(req)
}

type ctxKeyRetried struct{}

// recoveryTransport retries a 401 response exactly once after a silent
// token refresh. The refresh call itself goes through a bare client so
// it is never intercepted. When the refresh fails, the forced-logout
// callback runs and the original 401 is returned to the caller.
type recoveryTransport struct {
	store      credstore.Store
	next       http.RoundTripper
	refreshURL string
	bare       *http.Client

	mu             sync.RWMutex
	onForcedLogout func()
}

// SetForcedLogout injects the callback invoked when a session cannot be
// recovered. Set once at startup; safe to leave unset.
func (t *recoveryTransport) SetForcedLogout(fn func()) {
	t.mu.Lock()
	t.onForcedLogout = fn
	t.mu.Unlock()
}

func (t *recoveryTransport) forceLogout() {
	t.mu.RLock()
	fn := t.onForcedLogout
	t.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (t *recoveryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	// a rejection from the refresh endpoint itself is final
	if strings.HasSuffix(req.URL.Path, refreshPath) {
		return resp, nil
	}
	if retried, _ := req.Context().Value(ctxKeyRetried{}).(bool); retried {
		return resp, nil
	}

	refreshToken := t.store.RefreshToken()
	if refreshToken == "" {
		t.forceLogout()
		return resp, nil
	}

	accessToken, err := t.refresh(req.Context(), refreshToken)
	if err != nil {
		t.forceLogout()
		return resp, nil
	}
	if err := t.store.SetAccessToken(accessToken); err != nil {
		return resp, nil
	}

	retryReq, ok := cloneForRetry(req)
	if !ok {
		return resp, nil
	}
	drain(resp)
	retryReq.Header.Set("Authorization", "Bearer "+accessToken)
	return t.next.RoundTrip(retryReq)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

func (t *recoveryTransport) refresh(ctx context.Context, refreshToken string) (string, error) {
	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", errors.Wrap(err, "encoding refresh request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.refreshURL, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "building refresh request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.bare.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling refresh endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", errors.Wrapf(ErrSessionExpired, "refresh endpoint returned %d", resp.StatusCode)
	}
	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "decoding refresh response")
	}
	if out.AccessToken == "" {
		return "", errors.New("refresh endpoint returned empty access token")
	}
	return out.AccessToken, nil
}

// cloneForRetry rebuilds the original request for its single resubmission,
// marking it so a second 401 is not retried again.
func cloneForRetry(req *http.Request) (*http.Request, bool) {
	ctx := context.WithValue(req.Context(), ctxKeyRetried{}, true)
	retry := req.Clone(ctx)
	if req.Body == nil {
		return retry, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	retry.Body = body
	return retry, true
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func newTransportChain(store credstore.Store, baseURL string) (http.RoundTripper, *recoveryTransport) {
	recovery := &recoveryTransport{
		store:      store,
		next:       http.DefaultTransport,
		refreshURL: baseURL + refreshPath,
		bare:       &http.Client{Timeout: 15 * time.Second},
	}
	return &authTransport{store: store, next: recovery}, recovery
}
