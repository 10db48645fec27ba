package sandbox

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/lingoquiz/internal/api"
	"github.com/abhisek/lingoquiz/internal/quiz"
)

const maxUploadBytes = 10 << 20

type meta struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

type envelope struct {
	Meta meta `json:"meta"`
	Data any  `json:"data,omitempty"`
}

func respond(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Meta: meta{Code: http.StatusOK, Message: "success"}, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Meta: meta{Code: status, Message: message}})
}

// --- auth ---

func (s *Server) issue(u *user) (api.Tokens, error) {
	now := s.now()
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   u.id,
		"email": u.email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}).SignedString(s.secret)
	if err != nil {
		return api.Tokens{}, err
	}
	refresh := uuid.NewString()
	s.mu.Lock()
	s.refresh[refresh] = u.email
	s.mu.Unlock()
	return api.Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Server) login(c *gin.Context) {
	var req api.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	s.mu.Lock()
	u := s.users[strings.TrimSpace(req.Email)]
	s.mu.Unlock()
	if u == nil || bcrypt.CompareHashAndPassword(u.hash, []byte(req.Password)) != nil {
		fail(c, http.StatusUnauthorized, "invalid email or password")
		return
	}
	tok, err := s.issue(u)
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not issue token")
		return
	}
	respond(c, tok)
}

func (s *Server) refreshTokens(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "refresh token required")
		return
	}
	s.mu.Lock()
	email, found := s.refresh[req.RefreshToken]
	delete(s.refresh, req.RefreshToken)
	u := s.users[email]
	s.mu.Unlock()
	if !found || u == nil {
		fail(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	tok, err := s.issue(u)
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not issue token")
		return
	}
	respond(c, tok)
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			fail(c, http.StatusUnauthorized, "authorization required")
			return
		}
		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.secret, nil
		}, jwt.WithTimeFunc(s.now))
		if err != nil || !token.Valid {
			fail(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		claims, _ := token.Claims.(jwt.MapClaims)
		email, _ := claims["email"].(string)
		s.mu.Lock()
		u := s.users[email]
		s.mu.Unlock()
		if u == nil {
			fail(c, http.StatusUnauthorized, "unknown user")
			return
		}
		c.Set("user", u)
		c.Next()
	}
}

func currentUser(c *gin.Context) *user {
	return c.MustGet("user").(*user)
}

func (s *Server) me(c *gin.Context) {
	u := currentUser(c)
	respond(c, api.User{ID: u.id, Email: u.email, Name: u.name, Level: u.level})
}

// --- quizzes and attempts ---

func (s *Server) getQuiz(c *gin.Context) {
	s.mu.Lock()
	q, found := s.quizzes[c.Param("id")]
	s.mu.Unlock()
	if !found {
		fail(c, http.StatusNotFound, "quiz not found")
		return
	}
	respond(c, q)
}

func (s *Server) startAttempt(c *gin.Context) {
	u := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	q, found := s.quizzes[c.Param("id")]
	if !found {
		fail(c, http.StatusNotFound, "quiz not found")
		return
	}
	if q.MaxAttempts > 0 {
		var n int
		for _, st := range s.attempts {
			if st.attempt.QuizID == q.ID && st.attempt.UserID == u.id {
				n++
			}
		}
		if n >= q.MaxAttempts {
			fail(c, http.StatusForbidden, "maximum attempts reached")
			return
		}
	}
	now := s.now().UTC()
	st := &attemptState{
		attempt: quiz.Attempt{
			ID:        uuid.NewString(),
			QuizID:    q.ID,
			UserID:    u.id,
			Answers:   []quiz.AnswerRecord{},
			StartedAt: &now,
		},
		answers: make(map[string]quiz.AnswerRecord),
	}
	s.attempts[st.attempt.ID] = st
	respond(c, st.attempt)
}

// lookupAttempt returns the caller's attempt. s.mu must be held.
func (s *Server) lookupAttempt(c *gin.Context) *attemptState {
	st, found := s.attempts[c.Param("id")]
	if !found || st.attempt.UserID != currentUser(c).id {
		fail(c, http.StatusNotFound, "attempt not found")
		return nil
	}
	return st
}

// snapshot copies the attempt with answers in question order. s.mu must be
// held.
func (s *Server) snapshot(st *attemptState) quiz.Attempt {
	a := st.attempt
	q := s.quizzes[a.QuizID]
	a.Answers = make([]quiz.AnswerRecord, 0, len(st.answers))
	for _, qu := range q.Questions {
		if rec, found := st.answers[qu.ID]; found {
			a.Answers = append(a.Answers, rec.Clone())
		}
	}
	return a
}

func (s *Server) getAttempt(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.lookupAttempt(c)
	if st == nil {
		return
	}
	respond(c, s.snapshot(st))
}

func (s *Server) myAttempts(c *gin.Context) {
	u := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []quiz.Attempt{}
	for _, st := range s.attempts {
		if st.attempt.QuizID == c.Param("id") && st.attempt.UserID == u.id {
			out = append(out, s.snapshot(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(*out[j].StartedAt) })
	respond(c, out)
}

func (s *Server) submitQuestion(c *gin.Context) {
	var req api.SubmitQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	s.mu.Lock()
	st := s.lookupAttempt(c)
	if st == nil {
		s.mu.Unlock()
		return
	}
	if st.attempt.Completed() {
		s.mu.Unlock()
		fail(c, http.StatusConflict, "attempt already completed")
		return
	}
	q := s.quizzes[st.attempt.QuizID]
	idx := q.QuestionIndex(req.QuestionID)
	s.mu.Unlock()
	if idx < 0 {
		fail(c, http.StatusNotFound, "question not found in quiz")
		return
	}
	qu := q.Questions[idx]

	correct, score, err := s.grade(qu, req, s.resourceByURL)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	rec := quiz.AnswerRecord{
		QuestionID:      qu.ID,
		QuestionType:    qu.Type,
		Answer:          answerValue(qu.Type, req),
		TimeSpentMillis: req.TimeTaken,
		Timestamp:       s.now().UTC(),
		Status:          quiz.StatusConfirmed,
		Correct:         quiz.Bool(correct),
		ScoreAchieved:   quiz.Float(score),
	}
	s.mu.Lock()
	if st.attempt.Completed() {
		s.mu.Unlock()
		fail(c, http.StatusConflict, "attempt already completed")
		return
	}
	st.answers[qu.ID] = rec
	s.mu.Unlock()

	resp := api.SubmitQuestionResponse{QuestionID: qu.ID, IsCorrect: rec.Correct, ScoreAchieved: rec.ScoreAchieved}
	if req.AudioURL != nil {
		resp.AudioURL = *req.AudioURL
	}
	respond(c, resp)
}

func answerValue(t quiz.QuestionType, req api.SubmitQuestionRequest) quiz.AnswerValue {
	v := quiz.AnswerValue{Kind: t}
	switch {
	case req.SelectedOptions != nil && len(*req.SelectedOptions) > 0:
		v.OptionID = (*req.SelectedOptions)[0]
		v.Listened = t == quiz.Listening
	case req.FillInBlanksAnswers != nil:
		v.Blanks = append([]string{}, *req.FillInBlanksAnswers...)
	case req.AudioURL != nil:
		v.AudioURL = *req.AudioURL
	case req.UserAnswerTrueFalse != nil:
		v.TrueFalse = quiz.Bool(*req.UserAnswerTrueFalse)
	}
	return v
}

func (s *Server) completeAttempt(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.lookupAttempt(c)
	if st == nil {
		return
	}
	if st.attempt.Completed() {
		respond(c, s.snapshot(st))
		return
	}
	q := s.quizzes[st.attempt.QuizID]
	var score float64
	var correct int
	for _, rec := range st.answers {
		if rec.ScoreAchieved != nil {
			score += *rec.ScoreAchieved
		}
		if rec.Correct != nil && *rec.Correct {
			correct++
		}
	}
	now := s.now().UTC()
	st.attempt.Score = score
	st.attempt.CorrectAnswers = correct
	st.attempt.TimeSpentSeconds = int(now.Sub(*st.attempt.StartedAt).Seconds())
	st.attempt.Passed = quiz.Passed(score, q.MaxScore(), q.PassingScore)
	st.attempt.CompletedAt = &now
	respond(c, s.snapshot(st))
}

// --- resources ---

func (s *Server) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "file field required")
		return
	}
	if fh.Size > maxUploadBytes {
		fail(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "unreadable upload")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		fail(c, http.StatusBadRequest, "unreadable upload")
		return
	}
	if len(data) == 0 {
		fail(c, http.StatusBadRequest, "empty file")
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.resources[id] = resource{mime: fh.Header.Get("Content-Type"), data: data}
	s.mu.Unlock()

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	respond(c, api.UploadResult{URL: scheme + "://" + c.Request.Host + s.basePath + "/resources/" + id})
}

func (s *Server) resourceByURL(u string) ([]byte, bool) {
	i := strings.LastIndex(u, "/resources/")
	if i < 0 {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, found := s.resources[u[i+len("/resources/"):]]
	return r.data, found
}

func (s *Server) getResource(c *gin.Context) {
	s.mu.Lock()
	r, found := s.resources[c.Param("id")]
	s.mu.Unlock()
	if !found {
		fail(c, http.StatusNotFound, "resource not found")
		return
	}
	mime := r.mime
	if mime == "" {
		mime = "application/octet-stream"
	}
	c.Data(http.StatusOK, mime, r.data)
}

// --- pronunciation ---

func (s *Server) sample(c *gin.Context) {
	level := c.DefaultQuery("level", "easy")
	if custom := strings.TrimSpace(c.Query("customText")); custom != "" {
		if n := len(strings.Fields(custom)); n > 20 {
			fail(c, http.StatusBadRequest, "custom text must be at most 20 words")
			return
		}
		respond(c, api.Sample{
			RealTranscript: custom,
			IPATranscript:  "/" + strings.ToLower(custom) + "/",
		})
		return
	}
	pool, found := practiceSamples[level]
	if !found {
		fail(c, http.StatusBadRequest, "unknown level "+level)
		return
	}
	p := pool[int(s.now().UnixNano()/1e6)%len(pool)]
	respond(c, api.Sample{RealTranscript: p.text, IPATranscript: p.ipa, TranscriptTranslation: p.translation})
}

func (s *Server) accuracy(c *gin.Context) {
	var req api.AccuracyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		fail(c, http.StatusBadRequest, "text required")
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.Base64Audio)
	if err != nil || len(audio) == 0 {
		fail(c, http.StatusBadRequest, "base64Audio must be non-empty base64")
		return
	}
	a := s.scorer(req.Text, audio)
	respond(c, gin.H{
		"pronunciationAccuracy":   a.Accuracy,
		"realTranscriptsIpa":      a.RealIPA,
		"matchedTranscriptsIpa":   a.MatchedIPA,
		"isLetterCorrectAllWords": a.LetterMask,
	})
}
