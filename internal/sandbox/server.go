// Package sandbox serves an in-memory stand-in for the quiz platform API.
// It speaks the same {meta, data} envelope as the real services and is used
// for local demos and for exercising the client end to end.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/lingoquiz/internal/quiz"
)

// DefaultBasePath is the prefix all routes are mounted under.
const DefaultBasePath = "/api"

// Account is a learner who can sign in to the sandbox.
type Account struct {
	Email    string
	Password string
	Name     string
	Level    string
}

// DemoAccount is seeded when no accounts are configured.
var DemoAccount = Account{
	Email:    "learner@example.com",
	Password: "password",
	Name:     "Demo Learner",
	Level:    "B1",
}

// Options configures a Server.
type Options struct {
	BasePath  string
	JWTSecret string
	AccessTTL time.Duration
	Accounts  []Account
	Quizzes   []quiz.Quiz
	Scorer    Scorer
	Logger    *slog.Logger
	Now       func() time.Time
}

type user struct {
	id    string
	email string
	name  string
	level string
	hash  []byte
}

type attemptState struct {
	attempt quiz.Attempt
	answers map[string]quiz.AnswerRecord
}

type fault struct {
	code    int
	message string
}

// Server is the fake platform. All state lives in memory.
type Server struct {
	basePath string
	secret   []byte
	ttl      time.Duration
	scorer   Scorer
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	users     map[string]*user // by email
	refresh   map[string]string
	quizzes   map[string]quiz.Quiz
	tfKey     map[string]bool
	attempts  map[string]*attemptState
	resources map[string]resource
	faults    map[string]fault
}

type resource struct {
	mime string
	data []byte
}

// New builds a server seeded with the given accounts and quizzes, or the
// demo account and quiz when none are given.
func New(opts Options) (*Server, error) {
	s := &Server{
		basePath:  opts.BasePath,
		secret:    []byte(opts.JWTSecret),
		ttl:       opts.AccessTTL,
		scorer:    opts.Scorer,
		logger:    opts.Logger,
		now:       opts.Now,
		users:     make(map[string]*user),
		refresh:   make(map[string]string),
		quizzes:   make(map[string]quiz.Quiz),
		tfKey:     make(map[string]bool),
		attempts:  make(map[string]*attemptState),
		resources: make(map[string]resource),
		faults:    make(map[string]fault),
	}
	if s.basePath == "" {
		s.basePath = DefaultBasePath
	}
	if len(s.secret) == 0 {
		s.secret = []byte(uuid.NewString())
	}
	if s.ttl <= 0 {
		s.ttl = 15 * time.Minute
	}
	if s.scorer == nil {
		s.scorer = ChecksumScorer
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.now == nil {
		s.now = time.Now
	}

	accounts := opts.Accounts
	if len(accounts) == 0 {
		accounts = []Account{DemoAccount}
	}
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", a.Email, err)
		}
		s.users[a.Email] = &user{id: uuid.NewString(), email: a.Email, name: a.Name, level: a.Level, hash: hash}
	}

	quizzes := opts.Quizzes
	if len(quizzes) == 0 {
		quizzes = []quiz.Quiz{DemoQuiz()}
		for id, v := range demoTrueFalseKey {
			s.tfKey[id] = v
		}
	}
	for _, q := range quizzes {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("seed quiz %s: %w", q.ID, err)
		}
		s.quizzes[q.ID] = q
	}
	return s, nil
}

// SetTrueFalseKey records the correct answer of a true/false question.
func (s *Server) SetTrueFalseKey(questionID string, answer bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tfKey[questionID] = answer
}

// FailNext makes the next call of the named route answer with an error
// envelope. Route names are the handler names, e.g. "submit-question".
func (s *Server) FailNext(route string, code int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[route] = fault{code: code, message: message}
}

func (s *Server) takeFault(route string) (fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.faults[route]
	if ok {
		delete(s.faults, route)
	}
	return f, ok
}

// Handler returns the gin engine serving the API.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	api := r.Group(s.basePath)
	api.POST("/auth/login", s.route("login", s.login))
	api.POST("/auth/refresh", s.route("refresh", s.refreshTokens))
	api.GET("/resources/:id", s.route("get-resource", s.getResource))

	authed := api.Group("", s.requireAuth())
	authed.GET("/auth/me", s.route("me", s.me))
	authed.GET("/quizzes/:id", s.route("get-quiz", s.getQuiz))
	authed.POST("/quizzes/:id/attempts", s.route("start-attempt", s.startAttempt))
	authed.GET("/quizzes/:id/attempts/me", s.route("my-attempts", s.myAttempts))
	authed.GET("/attempts/:id", s.route("get-attempt", s.getAttempt))
	authed.POST("/attempts/:id/submit-question", s.route("submit-question", s.submitQuestion))
	authed.POST("/attempts/:id/complete", s.route("complete", s.completeAttempt))
	authed.POST("/resources", s.route("upload", s.upload))
	authed.GET("/pronunciation/sample", s.route("sample", s.sample))
	authed.POST("/pronunciation/accuracy", s.route("accuracy", s.accuracy))

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "route not found")
	})
	return r
}

// route applies any injected fault before running h.
func (s *Server) route(name string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if f, ok := s.takeFault(name); ok {
			// Failures are reported in the envelope with HTTP 200, the way
			// the platform reports business errors.
			c.JSON(http.StatusOK, envelope{Meta: meta{Code: f.code, Message: f.message}})
			return
		}
		h(c)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("sandbox request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"request_id", c.GetHeader("X-Request-ID"),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("sandbox listening", "addr", addr, "base_path", s.basePath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
