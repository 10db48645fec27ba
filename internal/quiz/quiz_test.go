package quiz

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestBlankCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"no blanks here", 0},
		{"I _____ to school.", 1},
		{"She _____ and he _____ every day.", 2},
		{"__________", 2},
		{"____", 0},
	}
	for _, tt := range tests {
		q := Question{Text: tt.text}
		if got := q.BlankCount(); got != tt.want {
			t.Errorf("BlankCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestPassed(t *testing.T) {
	tests := []struct {
		name                string
		score, max, passing float64
		want                bool
	}{
		{"exact threshold", 7, 10, 70, true},
		{"below threshold", 6, 10, 70, false},
		{"zero max treats score as percent", 80, 0, 70, true},
		{"zero max below", 50, 0, 70, false},
		{"full marks", 3, 3, 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Passed(tt.score, tt.max, tt.passing); got != tt.want {
				t.Errorf("Passed(%v, %v, %v) = %v, want %v", tt.score, tt.max, tt.passing, got, tt.want)
			}
		})
	}
}

func TestQuizValidate(t *testing.T) {
	valid := Quiz{
		ID:             "q1",
		NavigationMode: NavFree,
		Questions:      []Question{{ID: "a", Type: MultipleChoice, Points: 1}},
		PassingScore:   60,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	empty := valid
	empty.Questions = nil
	if err := empty.Validate(); !errors.Is(err, ErrInvalidQuiz) {
		t.Errorf("empty questions: err = %v, want ErrInvalidQuiz", err)
	}

	dup := valid
	dup.Questions = []Question{{ID: "a", Type: TrueFalse}, {ID: "a", Type: TrueFalse}}
	if err := dup.Validate(); !errors.Is(err, ErrInvalidQuiz) {
		t.Errorf("duplicate ids: err = %v, want ErrInvalidQuiz", err)
	}

	timer := valid
	timer.HasTimer = true
	timer.TimeLimitSeconds = 10
	timer.WarningTimeSeconds = 20
	if err := timer.Validate(); !errors.Is(err, ErrInvalidQuiz) {
		t.Errorf("warning > limit: err = %v, want ErrInvalidQuiz", err)
	}
}

func TestQuizDecodesPlatformJSON(t *testing.T) {
	raw := `{"id":"qz","title":"Basics","navigationMode":"back-only","hasTimer":true,
		"timeLimit":60,"warningTime":10,"passingScore":70,
		"questions":[{"id":"1","type":"MULTIPLE_CHOICE","text":"Pick","points":2,
		"options":[{"id":"o1","text":"A","isCorrect":true}]}]}`
	var q Quiz
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if q.NavigationMode != NavBackOnly {
		t.Errorf("NavigationMode = %q, want %q", q.NavigationMode, NavBackOnly)
	}
	if q.TimeLimitSeconds != 60 || q.WarningTimeSeconds != 10 {
		t.Errorf("timer = %d/%d, want 60/10", q.TimeLimitSeconds, q.WarningTimeSeconds)
	}
	if q.MaxScore() != 2 {
		t.Errorf("MaxScore() = %v, want 2", q.MaxScore())
	}
	if !q.Questions[0].HasOption("o1") {
		t.Error("HasOption(o1) = false, want true")
	}
}

func TestAnswerRecordClone(t *testing.T) {
	r := AnswerRecord{
		QuestionID: "q",
		Answer:     AnswerValue{Kind: FillInTheBlank, Blanks: []string{"a"}},
		Correct:    Bool(true),
	}
	c := r.Clone()
	c.Answer.Blanks[0] = "b"
	*c.Correct = false
	if r.Answer.Blanks[0] != "a" || !*r.Correct {
		t.Error("Clone shares memory with original")
	}
}

func TestHasType(t *testing.T) {
	q := Quiz{Questions: []Question{{ID: "q1", Type: MultipleChoice}, {ID: "q2", Type: Pronunciation}}}
	if !q.HasType(Pronunciation) {
		t.Error("HasType(Pronunciation) = false, want true")
	}
	if q.HasType(Listening) {
		t.Error("HasType(Listening) = true, want false")
	}
}
