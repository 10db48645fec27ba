package attempt

import (
	"github.com/abhisek/lingoquiz/internal/pronunciation"
	"github.com/abhisek/lingoquiz/internal/quiz"
	"github.com/abhisek/lingoquiz/internal/submission"
)

// submittedMsg carries the outcome of one answer submission.
type submittedMsg struct {
	Outcome submission.Outcome
}

// uploadedMsg is sent when a recording upload resolves.
type uploadedMsg struct {
	Ref pronunciation.SampleRef
	URL string
	Err error
}

// micInitMsg reports the microphone probe.
type micInitMsg struct {
	Err error
}

// playedMsg is sent when listening playback ends.
type playedMsg struct {
	QuestionID string
	Err        error
}

// finalizedMsg carries the complete-attempt response.
type finalizedMsg struct {
	Attempt *quiz.Attempt
	Err     error
}
