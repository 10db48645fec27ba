package quiz

import "time"

// SubmissionStatus tracks whether the server has confirmed an answer.
type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "pending"   // Written locally, request in flight
	StatusConfirmed SubmissionStatus = "confirmed" // Server returned correctness
	StatusFailed    SubmissionStatus = "failed"    // Request failed; local answer kept
)

// AnswerValue is the learner's answer for one question. Exactly one field
// besides Kind is meaningful, selected by Kind.
type AnswerValue struct {
	Kind      QuestionType `json:"kind"`
	OptionID  string       `json:"optionId,omitempty"`
	Blanks    []string     `json:"blanks,omitempty"`
	AudioURL  string       `json:"audioUrl,omitempty"`
	Listened  bool         `json:"listened,omitempty"`
	TrueFalse *bool        `json:"trueFalse,omitempty"`
}

// AnswerRecord is the client's view of one answered question.
type AnswerRecord struct {
	QuestionID      string           `json:"questionId"`
	QuestionType    QuestionType     `json:"questionType"`
	Answer          AnswerValue      `json:"answer"`
	TimeSpentMillis int64            `json:"timeSpent"`
	Timestamp       time.Time        `json:"timestamp"`
	Status          SubmissionStatus `json:"status,omitempty"`
	Correct         *bool            `json:"isCorrect,omitempty"`
	ScoreAchieved   *float64         `json:"scoreAchieved,omitempty"`

	// Seq is the local submission sequence number for this question.
	Seq uint64 `json:"-"`
}

// Clone returns a deep copy of the record.
func (r AnswerRecord) Clone() AnswerRecord {
	c := r
	if r.Answer.Blanks != nil {
		c.Answer.Blanks = append([]string(nil), r.Answer.Blanks...)
	}
	if r.Answer.TrueFalse != nil {
		v := *r.Answer.TrueFalse
		c.Answer.TrueFalse = &v
	}
	if r.Correct != nil {
		v := *r.Correct
		c.Correct = &v
	}
	if r.ScoreAchieved != nil {
		v := *r.ScoreAchieved
		c.ScoreAchieved = &v
	}
	return c
}

// Attempt is one learner's run through a quiz.
type Attempt struct {
	ID               string         `json:"id"`
	QuizID           string         `json:"quizId"`
	UserID           string         `json:"userId,omitempty"`
	Answers          []AnswerRecord `json:"answers"`
	Score            float64        `json:"score"`
	CorrectAnswers   int            `json:"correctAnswers"`
	TimeSpentSeconds int            `json:"timeSpent"`
	StartedAt        *time.Time     `json:"startedAt,omitempty"`
	CompletedAt      *time.Time     `json:"completedAt,omitempty"`
	Passed           bool           `json:"passed"`
}

// Completed reports whether the attempt has been finalized.
func (a Attempt) Completed() bool {
	return a.CompletedAt != nil
}

// ResultPercent converts a raw score into a percentage of maxScore. A zero
// maxScore means the platform already reports a percentage.
func ResultPercent(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return score
	}
	return score / maxScore * 100
}

// Passed reports whether score reaches passingScore, which is a percentage.
func Passed(score, maxScore, passingScore float64) bool {
	return ResultPercent(score, maxScore) >= passingScore
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
