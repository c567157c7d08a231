package session

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/gaelruiz9024/fraud-dashboard/internal/backend"
	"github.com/gaelruiz9024/fraud-dashboard/pkg/credstore"
	"github.com/pkg/errors"
)

// LoginRoute is where anonymous and forcibly logged-out sessions land.
const LoginRoute = "/login"

// Backend is the slice of the API client the guard needs.
type Backend interface {
	Login(ctx context.Context, correo, contrasena string) (backend.TokenPair, error)
	Profile(ctx context.Context) (backend.UserProfile, error)
}

// State is the observable session snapshot.
type State struct {
	Identity        *backend.UserProfile
	IsAuthenticated bool
	IsAdmin         bool
	LoadingTokens   bool
}

// Guard is the single owner of login/logout transitions. Nothing else
// clears the credential store outside the recovery transport's own
// forced-logout path, which is wired back to Logout.
type Guard struct {
	store    credstore.Store
	api      Backend
	navigate func(route string)

	mu       sync.Mutex
	identity *backend.UserProfile
	loading  bool
	settled  chan struct{}
}

// NewGuard creates a guard in the initial, still-loading state.
// Call Bootstrap once at startup to settle it. navigate may be nil.
func NewGuard(store credstore.Store, api Backend, navigate func(route string)) *Guard {
	return &Guard{
		store:    store,
		api:      api,
		navigate: navigate,
		loading:  true,
		settled:  make(chan struct{}),
	}
}

// Bootstrap restores the session from the credential store: if an access
// token is present, fetch the profile; otherwise stay anonymous. A failed
// profile fetch degrades to anonymous without surfacing an error.
func (g *Guard) Bootstrap(ctx context.Context) {
	g.beginLoading()
	defer g.endLoading()

	if g.store.AccessToken() != "" {
		profile, err := g.api.Profile(ctx)
		if err == nil {
			g.setIdentity(&profile)
			return
		}
		log.Printf("session: bootstrap profile fetch failed: %v", err)
	}

	if err := g.store.Clear(); err != nil {
		log.Printf("session: clearing credential store: %v", err)
	}
	g.setIdentity(nil)
}

// Login authenticates against the backend and loads the profile.
// Validation failures happen before any network call.
func (g *Guard) Login(ctx context.Context, correo, contrasena string) error {
	if err := validateLogin(correo, contrasena); err != nil {
		return err
	}

	g.beginLoading()
	defer g.endLoading()

	pair, err := g.api.Login(ctx, correo, contrasena)
	if err != nil {
		g.clearPartial()
		return err
	}
	if err := g.store.SetTokens(pair.AccessToken, pair.RefreshToken); err != nil {
		g.clearPartial()
		return errors.Wrap(err, "storing token pair")
	}

	profile, err := g.api.Profile(ctx)
	if err != nil {
		g.clearPartial()
		return errors.Wrap(err, "fetching profile after login")
	}
	g.setIdentity(&profile)
	return nil
}

// Logout clears the credential store and the identity, then navigates to
// the login route. Idempotent; also used as the forced-logout callback.
func (g *Guard) Logout() {
	if err := g.store.Clear(); err != nil {
		log.Printf("session: clearing credential store: %v", err)
	}
	g.setIdentity(nil)
	if g.navigate != nil {
		g.navigate(LoginRoute)
	}
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := State{
		Identity:      g.identity,
		LoadingTokens: g.loading,
	}
	st.IsAuthenticated = g.identity != nil
	st.IsAdmin = st.IsAuthenticated && g.identity.IDRol == backend.RoleAdmin
	return st
}

// Wait blocks until the current login/bootstrap round trip settles.
// Route guarding uses it to defer redirect decisions while tokens load.
func (g *Guard) Wait(ctx context.Context) error {
	g.mu.Lock()
	loading := g.loading
	settled := g.settled
	g.mu.Unlock()
	if !loading {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-settled:
		return nil
	}
}

func (g *Guard) beginLoading() {
	g.mu.Lock()
	if !g.loading {
		g.loading = true
		g.settled = make(chan struct{})
	}
	g.mu.Unlock()
}

func (g *Guard) endLoading() {
	g.mu.Lock()
	if g.loading {
		g.loading = false
		close(g.settled)
	}
	g.mu.Unlock()
}

func (g *Guard) setIdentity(profile *backend.UserProfile) {
	g.mu.Lock()
	g.identity = profile
	g.mu.Unlock()
}

func (g *Guard) clearPartial() {
	if err := g.store.Clear(); err != nil {
		log.Printf("session: clearing partial tokens: %v", err)
	}
	g.setIdentity(nil)
}

func validateLogin(correo, contrasena string) error {
	if strings.TrimSpace(correo) == "" {
		return &backend.ValidationError{Field: "correo", Reason: "must not be empty"}
	}
	if !strings.Contains(correo, "@") {
		return &backend.ValidationError{Field: "correo", Reason: "must be an email address"}
	}
	if contrasena == "" {
		return &backend.ValidationError{Field: "contrasena", Reason: "must not be empty"}
	}
	return nil
}
