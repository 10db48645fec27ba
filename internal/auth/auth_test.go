package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/abhisek/lingoquiz/internal/api"
	"github.com/abhisek/lingoquiz/internal/store"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "learner-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

type fakeAuth struct {
	refreshes  int
	refreshErr error
	next       string
}

func (f *fakeAuth) Login(_ context.Context, c api.Credentials) (*api.Tokens, error) {
	if c.Password != "pw" {
		return nil, &api.ErrAPI{Op: "login", Status: 401, Code: 401, Message: "bad credentials"}
	}
	return &api.Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"}, nil
}

func (f *fakeAuth) RefreshTokens(_ context.Context, refresh string) (*api.Tokens, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &api.Tokens{AccessToken: f.next}, nil
}

func (f *fakeAuth) CurrentUser(context.Context) (*api.User, error) {
	return &api.User{ID: "u1", Email: "learner@example.com"}, nil
}

func newTestManager(t *testing.T, fa *fakeAuth) (*Manager, store.TokenRepo) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	repo := st.TokenRepo()
	return NewManager(repo, fa, WithClock(func() time.Time { return epoch })), repo
}

func TestTokenWithoutSessionIsAnonymous(t *testing.T) {
	m, _ := newTestManager(t, &fakeAuth{})
	tok, err := m.Token(context.Background())
	if err != nil || tok != "" {
		t.Errorf("Token() = %q, %v; want anonymous", tok, err)
	}
	if _, err := m.Whoami(context.Background()); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("Whoami() error = %v, want ErrNotSignedIn", err)
	}
}

func TestLoginStoresSession(t *testing.T) {
	fa := &fakeAuth{}
	m, repo := newTestManager(t, fa)
	ctx := context.Background()

	if _, err := m.Login(ctx, "learner@example.com", "wrong"); !api.IsUnauthorized(err) {
		t.Errorf("Login(wrong) error = %v", err)
	}
	u, err := m.Login(ctx, " learner@example.com ", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "u1" {
		t.Errorf("user = %+v", u)
	}
	stored, err := repo.Load(ctx)
	if err != nil || stored.Email != "learner@example.com" || stored.RefreshToken != "refresh-1" {
		t.Errorf("stored = %+v, %v", stored, err)
	}

	// Opaque tokens are used as-is.
	if tok, _ := m.Token(ctx); tok != "access-1" {
		t.Errorf("Token() = %q", tok)
	}

	if err := m.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if tok, _ := m.Token(ctx); tok != "" {
		t.Errorf("Token() after logout = %q", tok)
	}
}

func TestTokenRefreshesNearExpiry(t *testing.T) {
	fresh := signed(t, epoch.Add(time.Hour))
	fa := &fakeAuth{next: fresh}
	m, repo := newTestManager(t, fa)
	ctx := context.Background()

	repo.Save(ctx, store.Tokens{AccessToken: signed(t, epoch.Add(10*time.Second)), RefreshToken: "r", Email: "e"})

	tok, err := m.Token(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tok != fresh || fa.refreshes != 1 {
		t.Errorf("Token() refreshed %d times, got fresh = %v", fa.refreshes, tok == fresh)
	}
	stored, _ := repo.Load(ctx)
	if stored.RefreshToken != "r" {
		t.Errorf("refresh token lost: %+v", stored)
	}

	// Far from expiry: no further refresh.
	if _, err := m.Token(ctx); err != nil || fa.refreshes != 1 {
		t.Errorf("refreshes = %d, err = %v", fa.refreshes, err)
	}
}

func TestTokenRefreshFailure(t *testing.T) {
	fa := &fakeAuth{refreshErr: &api.ErrTransport{Op: "refresh", Err: errors.New("offline")}}
	m, repo := newTestManager(t, fa)
	ctx := context.Background()

	soon := signed(t, epoch.Add(5*time.Second))
	repo.Save(ctx, store.Tokens{AccessToken: soon, RefreshToken: "r"})
	if tok, err := m.Token(ctx); err != nil || tok != soon {
		t.Errorf("still-valid token: Token() = %v, %v", tok == soon, err)
	}

	repo.Save(ctx, store.Tokens{AccessToken: signed(t, epoch.Add(-time.Minute)), RefreshToken: "r"})
	if _, err := m.Token(ctx); !api.IsTransport(err) {
		t.Errorf("expired token: Token() error = %v, want transport", err)
	}
}

func TestStaticToken(t *testing.T) {
	m := NewManager(nil, &fakeAuth{}, WithStaticToken("ci-token"))
	if tok, _ := m.Token(context.Background()); tok != "ci-token" {
		t.Errorf("Token() = %q", tok)
	}
	if err := m.Refresh(context.Background()); err == nil {
		t.Error("static token refreshed")
	}
}

func TestExpiry(t *testing.T) {
	exp := epoch.Add(time.Minute)
	got, ok := Expiry(signed(t, exp))
	if !ok || !got.Equal(exp) {
		t.Errorf("Expiry() = %v, %v", got, ok)
	}
	if _, ok := Expiry("opaque-token"); ok {
		t.Error("opaque token reported an expiry")
	}
}
