// Package auth keeps the learner signed in: it stores the token pair,
// supplies the bearer token to the API client and renews it before expiry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/abhisek/lingoquiz/internal/api"
	"github.com/abhisek/lingoquiz/internal/store"
)

// RefreshWindow is how close to expiry a token is renewed.
const RefreshWindow = 30 * time.Second

// ErrNotSignedIn is returned when an operation needs a stored session.
var ErrNotSignedIn = store.ErrNoTokens

// Authenticator is the subset of the platform client auth needs.
type Authenticator interface {
	Login(ctx context.Context, creds api.Credentials) (*api.Tokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*api.Tokens, error)
	CurrentUser(ctx context.Context) (*api.User, error)
}

// Manager implements api.TokenSource and api.Refresher over a TokenRepo.
type Manager struct {
	repo   store.TokenRepo
	client Authenticator
	static string
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithStaticToken makes the manager always return token, bypassing the
// stored session.
func WithStaticToken(token string) Option {
	return func(m *Manager) { m.static = token }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a manager. The client may be set later with SetClient
// when it is itself built around the manager.
func NewManager(repo store.TokenRepo, client Authenticator, opts ...Option) *Manager {
	m := &Manager{repo: repo, client: client, logger: slog.New(slog.DiscardHandler), now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// SetClient installs the authenticator.
func (m *Manager) SetClient(c Authenticator) { m.client = c }

// Token returns the access token, renewing it first when it expires within
// RefreshWindow. No stored session yields an empty token.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if m.static != "" {
		return m.static, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, err := m.repo.Load(ctx)
	if errors.Is(err, store.ErrNoTokens) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	exp, ok := Expiry(tok.AccessToken)
	if !ok || exp.Sub(m.now()) > RefreshWindow || tok.RefreshToken == "" {
		return tok.AccessToken, nil
	}

	fresh, err := m.refreshLocked(ctx, tok)
	if err != nil {
		if m.now().Before(exp) {
			m.logger.Warn("token refresh failed, using current token", "error", err)
			return tok.AccessToken, nil
		}
		return "", err
	}
	return fresh.AccessToken, nil
}

// Refresh renews the token pair unconditionally, after the platform
// rejected the current token.
func (m *Manager) Refresh(ctx context.Context) error {
	if m.static != "" {
		return errors.New("static token cannot be refreshed")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, err := m.repo.Load(ctx)
	if err != nil {
		return err
	}
	if tok.RefreshToken == "" {
		return fmt.Errorf("no refresh token: %w", ErrNotSignedIn)
	}
	_, err = m.refreshLocked(ctx, tok)
	return err
}

func (m *Manager) refreshLocked(ctx context.Context, tok *store.Tokens) (*store.Tokens, error) {
	pair, err := m.client.RefreshTokens(ctx, tok.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	next := store.Tokens{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Email:        tok.Email,
		UpdatedAt:    m.now().UTC(),
	}
	if next.RefreshToken == "" {
		next.RefreshToken = tok.RefreshToken
	}
	if err := m.repo.Save(ctx, next); err != nil {
		return nil, err
	}
	m.logger.Info("token refreshed", "email", tok.Email)
	return &next, nil
}

// Login signs in and stores the session.
func (m *Manager) Login(ctx context.Context, email, password string) (*api.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	pair, err := m.client.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	err = m.repo.Save(ctx, store.Tokens{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Email:        email,
		UpdatedAt:    m.now().UTC(),
	})
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.client.CurrentUser(ctx)
}

// Logout forgets the stored session.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repo.Clear(ctx)
}

// Whoami returns the signed-in learner.
func (m *Manager) Whoami(ctx context.Context) (*api.User, error) {
	if m.static == "" {
		if _, err := m.repo.Load(ctx); err != nil {
			return nil, err
		}
	}
	return m.client.CurrentUser(ctx)
}

// Expiry reads the exp claim of a JWT without verifying it. Opaque tokens
// and tokens without exp report false.
func Expiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
