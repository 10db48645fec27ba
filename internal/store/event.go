package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter hands out the global monotonic sequence shared by every
// journal row, so entries of different kinds keep a single order even when
// they are appended from different goroutines.
//
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

var eventColumns = []string{
	"sequence", "kind", "attempt_id", "quiz_id", "question_id",
	"score", "success", "payload", "created_at",
}

// eventRepo implements EventRepo on the events table.
type eventRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

type row struct {
	kind       EventKind
	attemptID  string
	quizID     string
	questionID string
	score      *float64
	success    bool
	payload    any
}

func (r *eventRepo) append(ctx context.Context, e row) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(e.payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", e.kind, err)
	}
	var score any
	if e.score != nil {
		score = *e.score
	}

	query, args := builder().Insert("events").
		Columns(eventColumns...).
		Values(seq, string(e.kind), e.attemptID, e.quizID, e.questionID, score, e.success, string(payload), time.Now().UTC()).
		Query()
	if _, err := r.drv.DB().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save %s event: %w", e.kind, err)
	}
	return nil
}

func (r *eventRepo) AppendAnswer(ctx context.Context, data AnswerEventData) error {
	return r.append(ctx, row{
		kind:       KindAnswer,
		attemptID:  data.AttemptID,
		questionID: data.QuestionID,
		score:      data.Score,
		success:    data.Error == "",
		payload:    data,
	})
}

func (r *eventRepo) AppendAttempt(ctx context.Context, data AttemptEventData) error {
	return r.append(ctx, row{
		kind:      KindAttempt,
		attemptID: data.AttemptID,
		quizID:    data.QuizID,
		score:     data.Percent,
		success:   data.Error == "",
		payload:   data,
	})
}

func (r *eventRepo) AppendPractice(ctx context.Context, data PracticeEventData) error {
	acc := data.Accuracy
	return r.append(ctx, row{
		kind:    KindPractice,
		score:   &acc,
		success: true,
		payload: data,
	})
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	return r.append(ctx, row{
		kind:    KindLLMRequest,
		success: data.Success,
		payload: data,
	})
}

func (r *eventRepo) Query(ctx context.Context, opts QueryOpts) ([]Event, error) {
	b := builder()
	sel := b.Select(eventColumns...).From(b.Table("events"))

	var preds []*entsql.Predicate
	if len(opts.Kinds) > 0 {
		kinds := make([]any, len(opts.Kinds))
		for i, k := range opts.Kinds {
			kinds[i] = string(k)
		}
		preds = append(preds, entsql.In("kind", kinds...))
	}
	if opts.AttemptID != "" {
		preds = append(preds, entsql.EQ("attempt_id", opts.AttemptID))
	}
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.drv.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			kind    string
			score   sql.NullFloat64
			payload string
		)
		if err := rows.Scan(&e.Sequence, &kind, &e.AttemptID, &e.QuizID, &e.QuestionID, &score, &e.Success, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = EventKind(kind)
		if score.Valid {
			v := score.Float64
			e.Score = &v
		}
		e.Payload = json.RawMessage(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) PracticeSummary(ctx context.Context) (PracticeSummary, error) {
	b := builder()
	query, args := b.Select(entsql.Count("*"), entsql.Avg("score")).
		From(b.Table("events")).
		Where(entsql.EQ("kind", string(KindPractice))).
		Query()

	var (
		count int
		avg   sql.NullFloat64
	)
	if err := r.drv.DB().QueryRowContext(ctx, query, args...).Scan(&count, &avg); err != nil {
		return PracticeSummary{}, fmt.Errorf("practice summary: %w", err)
	}
	return PracticeSummary{Count: count, Average: avg.Float64}, nil
}
