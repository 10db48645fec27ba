package submission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/abhisek/lingoquiz/internal/api"
	"github.com/abhisek/lingoquiz/internal/quiz"
)

// Submitter sends one answer to the platform.
type Submitter interface {
	SubmitQuestion(ctx context.Context, attemptID string, req api.SubmitQuestionRequest) (*api.SubmitQuestionResponse, error)
}

// Journal records reconciled outcomes. Implementations must not block.
type Journal interface {
	RecordAnswer(ctx context.Context, attemptID string, rec quiz.AnswerRecord, err error)
}

// Pending is a submission that has been written locally and awaits sending.
type Pending struct {
	AttemptID string
	Question  quiz.Question
	Seq       uint64
	Request   api.SubmitQuestionRequest
}

// Outcome is the result of sending a Pending submission.
type Outcome struct {
	Pending  *Pending
	Response *api.SubmitQuestionResponse
	Err      error
}

// Reconciled describes what Reconcile did with an Outcome.
type Reconciled struct {
	QuestionID string

	// Stale is true when a newer submission for the same question exists;
	// the outcome was discarded.
	Stale bool

	// Err is the API or transport failure, if any.
	Err error
}

// Pipeline runs the begin / send / reconcile protocol. Begin and Reconcile
// mutate the Book and must run on the owning goroutine; Send is safe to run
// concurrently.
type Pipeline struct {
	book    *Book
	client  Submitter
	journal Journal
	logger  *slog.Logger
	now     func() time.Time
}

// Options configures a Pipeline.
type Options struct {
	Journal Journal
	Logger  *slog.Logger
	Now     func() time.Time
}

// NewPipeline returns a pipeline writing to book and sending through client.
func NewPipeline(book *Book, client Submitter, opts Options) *Pipeline {
	p := &Pipeline{book: book, client: client, journal: opts.Journal, logger: opts.Logger, now: opts.Now}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Book returns the answer book the pipeline writes to.
func (p *Pipeline) Book() *Book { return p.book }

// Begin validates the answer and writes the optimistic record.
func (p *Pipeline) Begin(attemptID string, q quiz.Question, v quiz.AnswerValue, elapsedMs int64) (*Pending, error) {
	req, err := Build(q, v, elapsedMs)
	if err != nil {
		return nil, err
	}

	seq := p.book.write(quiz.AnswerRecord{
		QuestionID:      q.ID,
		QuestionType:    q.Type,
		Answer:          v,
		TimeSpentMillis: req.TimeTaken,
		Timestamp:       p.now(),
		Status:          quiz.StatusPending,
	})
	return &Pending{AttemptID: attemptID, Question: q, Seq: seq, Request: req}, nil
}

// Send issues exactly one network call for pending. It does not touch the book.
func (p *Pipeline) Send(ctx context.Context, pending *Pending) Outcome {
	resp, err := p.client.SubmitQuestion(ctx, pending.AttemptID, pending.Request)
	return Outcome{Pending: pending, Response: resp, Err: err}
}

// Reconcile applies an outcome to the book. Outcomes older than the latest
// submission for the same question are discarded.
func (p *Pipeline) Reconcile(o Outcome) Reconciled {
	qid := o.Pending.Question.ID
	res := Reconciled{QuestionID: qid, Err: o.Err}

	if o.Pending.Seq < p.book.Latest(qid) {
		p.logger.Debug("discarding stale submission", "question_id", qid, "seq", o.Pending.Seq, "latest", p.book.Latest(qid))
		res.Stale = true
		return res
	}

	if o.Err != nil {
		p.book.patch(qid, func(r *quiz.AnswerRecord) {
			r.Status = quiz.StatusFailed
			r.Correct = nil
			r.ScoreAchieved = nil
		})
		kind := "transport"
		switch {
		case api.IsAPI(o.Err):
			kind = "api"
		case api.IsAuth(o.Err):
			kind = "auth"
		case errors.Is(o.Err, context.Canceled):
			kind = "canceled"
		}
		p.logger.Warn("submission failed", "question_id", qid, "kind", kind, "error", o.Err)
	} else {
		p.book.patch(qid, func(r *quiz.AnswerRecord) {
			r.Status = quiz.StatusConfirmed
			if o.Response != nil {
				r.Correct = o.Response.IsCorrect
				r.ScoreAchieved = o.Response.ScoreAchieved
				if o.Response.AudioURL != "" && r.QuestionType == quiz.Pronunciation {
					r.Answer.AudioURL = o.Response.AudioURL
				}
			}
		})
	}

	if p.journal != nil {
		if rec := p.book.Get(qid); rec != nil {
			p.journal.RecordAnswer(context.Background(), o.Pending.AttemptID, *rec, o.Err)
		}
	}
	return res
}
