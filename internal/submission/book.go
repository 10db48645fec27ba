package submission

import (
	"github.com/abhisek/lingoquiz/internal/quiz"
)

// Book is the optimistic local answer state for one attempt, keyed by
// question id. Only the Pipeline writes to it.
type Book struct {
	order   []string
	records map[string]*quiz.AnswerRecord
	seq     map[string]uint64
}

// NewBook returns an empty book ordered by the quiz's questions.
func NewBook(q quiz.Quiz) *Book {
	b := &Book{
		records: make(map[string]*quiz.AnswerRecord, len(q.Questions)),
		seq:     make(map[string]uint64, len(q.Questions)),
	}
	for _, qu := range q.Questions {
		b.order = append(b.order, qu.ID)
	}
	return b
}

// Seed loads answers the server already holds (a resumed attempt).
func (b *Book) Seed(answers []quiz.AnswerRecord) {
	for _, a := range answers {
		rec := a.Clone()
		if rec.Status == "" {
			rec.Status = quiz.StatusConfirmed
		}
		b.records[rec.QuestionID] = &rec
	}
}

// Get returns a copy of the record for a question, or nil.
func (b *Book) Get(questionID string) *quiz.AnswerRecord {
	r, ok := b.records[questionID]
	if !ok {
		return nil
	}
	c := r.Clone()
	return &c
}

// Answered reports whether a question has a local answer.
func (b *Book) Answered(questionID string) bool {
	_, ok := b.records[questionID]
	return ok
}

// Len returns the number of answered questions.
func (b *Book) Len() int { return len(b.records) }

// All returns copies of every record in question order.
func (b *Book) All() []quiz.AnswerRecord {
	out := make([]quiz.AnswerRecord, 0, len(b.records))
	for _, id := range b.order {
		if r, ok := b.records[id]; ok {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Latest returns the newest issued sequence number for a question.
func (b *Book) Latest(questionID string) uint64 {
	return b.seq[questionID]
}

func (b *Book) write(rec quiz.AnswerRecord) uint64 {
	b.seq[rec.QuestionID]++
	rec.Seq = b.seq[rec.QuestionID]
	b.records[rec.QuestionID] = &rec
	return rec.Seq
}

func (b *Book) patch(questionID string, fn func(*quiz.AnswerRecord)) {
	if r, ok := b.records[questionID]; ok {
		fn(r)
	}
}
