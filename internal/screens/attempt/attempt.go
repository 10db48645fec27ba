// Package attempt is the screen a learner takes a quiz on.
package attempt

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingoquiz/internal/api"
	sess "github.com/abhisek/lingoquiz/internal/attempt"
	"github.com/abhisek/lingoquiz/internal/audio"
	"github.com/abhisek/lingoquiz/internal/navigation"
	"github.com/abhisek/lingoquiz/internal/pronunciation"
	"github.com/abhisek/lingoquiz/internal/quiz"
	"github.com/abhisek/lingoquiz/internal/router"
	"github.com/abhisek/lingoquiz/internal/screen"
	"github.com/abhisek/lingoquiz/internal/screens/results"
	"github.com/abhisek/lingoquiz/internal/submission"
	"github.com/abhisek/lingoquiz/internal/timer"
	"github.com/abhisek/lingoquiz/internal/ui/components"
	"github.com/abhisek/lingoquiz/internal/ui/layout"
)

// defaultListeningLimit bounds playback when a question sets no limit.
const defaultListeningLimit = 60 * time.Second

const checkingMic = "Checking the microphone..."

// Deps are the screen's collaborators besides the session.
type Deps struct {
	// Uploader stores pronunciation recordings.
	Uploader pronunciation.Uploader

	// Player plays listening audio. Nil disables playback.
	Player audio.Player

	// Fetcher reloads the finished attempt for the results screen.
	Fetcher results.Fetcher

	Logger *slog.Logger
}

// AttemptScreen implements screen.Screen for a quiz attempt.
type AttemptScreen struct {
	ctx       context.Context
	session   *sess.Session
	processor *pronunciation.Processor
	player    audio.Player
	fetcher   results.Fetcher
	logger    *slog.Logger

	// Widgets for the question on screen, rebuilt when it changes.
	shown   int
	choices components.ChoiceList
	blanks  []components.TextInput
	focus   int

	picker        bool
	pickerCursor  int
	confirmLeave  bool
	confirmFinish bool

	playing  bool
	inFlight int
	micErr   string

	toast      string
	toastError bool
}

var _ screen.Screen = (*AttemptScreen)(nil)
var _ screen.KeyHintProvider = (*AttemptScreen)(nil)
var _ screen.StatusProvider = (*AttemptScreen)(nil)
var _ screen.EscapeHandler = (*AttemptScreen)(nil)

// New creates the screen for an open session.
func New(ctx context.Context, s *sess.Session, deps Deps) *AttemptScreen {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &AttemptScreen{
		ctx:     ctx,
		session: s,
		player:  deps.Player,
		fetcher: deps.Fetcher,
		logger:  logger,
		shown:   -1,
	}
	if deps.Uploader != nil {
		a.processor = pronunciation.NewProcessor(deps.Uploader, nil)
	}
	a.sync()
	return a
}

func (a *AttemptScreen) Init() tea.Cmd {
	cmds := []tea.Cmd{a.session.StartTimer()}
	if a.session.Timer.Expired() {
		// A resumed attempt may already be out of time.
		if err := a.session.Expire(); err == nil {
			a.info("Time is up. Submitting your attempt...")
			return a.finalize()
		}
	}
	if a.hasPronunciation() && a.session.Recorder != nil {
		cmds = append(cmds, a.initMic())
	}
	if len(a.blanks) > 0 {
		cmds = append(cmds, a.blanks[a.focus].Focus())
	}
	return tea.Batch(cmds...)
}

func (a *AttemptScreen) Title() string {
	return a.session.Quiz.Title
}

// Status shows the remaining time.
func (a *AttemptScreen) Status() string {
	t := a.session.Timer
	if !t.Enabled() {
		return ""
	}
	if t.Expired() {
		return "⏱ 0:00"
	}
	s := "⏱ " + timer.Format(t.Remaining())
	if t.Warning() {
		s += " !"
	}
	return s
}

// HandlesEscape keeps Esc from popping the screen mid-attempt.
func (a *AttemptScreen) HandlesEscape() bool { return true }

func (a *AttemptScreen) KeyHints() []layout.KeyHint {
	switch {
	case a.session.Finalizing():
		return []layout.KeyHint{{Key: "", Description: "Submitting..."}}
	case a.confirmLeave, a.confirmFinish:
		return []layout.KeyHint{{Key: "Y", Description: "Yes"}, {Key: "N", Description: "No"}}
	case a.picker:
		return []layout.KeyHint{
			{Key: "←/→", Description: "Move"},
			{Key: "Enter", Description: "Go"},
			{Key: "Esc", Description: "Close"},
		}
	}

	var hints []layout.KeyHint
	switch a.session.Question().Type {
	case quiz.MultipleChoice, quiz.TrueFalse:
		hints = append(hints, layout.KeyHint{Key: "↑/↓ Enter", Description: "Answer"})
	case quiz.Listening:
		hints = append(hints,
			layout.KeyHint{Key: "Space", Description: "Play"},
			layout.KeyHint{Key: "↑/↓ Enter", Description: "Answer"})
	case quiz.FillInTheBlank:
		hints = append(hints,
			layout.KeyHint{Key: "Tab", Description: "Next blank"},
			layout.KeyHint{Key: "Enter", Description: "Save"})
	case quiz.Pronunciation:
		hints = append(hints, layout.KeyHint{Key: "R", Description: "Record"})
	}
	hints = append(hints, layout.KeyHint{Key: "^N/^P", Description: "Next/Prev"})
	if a.session.Quiz.AllowQuestionPicker {
		hints = append(hints, layout.KeyHint{Key: "^G", Description: "Questions"})
	}
	hints = append(hints, layout.KeyHint{Key: "^F", Description: "Finish"})
	return hints
}

func (a *AttemptScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case timer.TickMsg:
		cmd, expired := a.session.Tick(msg)
		if expired {
			a.resetOverlays()
			a.info("Time is up. Submitting your attempt...")
			return a, a.finalize()
		}
		return a, cmd

	case submittedMsg:
		return a, a.handleSubmitted(msg)

	case uploadedMsg:
		return a, a.handleUploaded(msg)

	case micInitMsg:
		a.micErr = ""
		if msg.Err != nil {
			a.micErr = micMessage(msg.Err)
		} else if a.toast == checkingMic {
			a.clearToast()
		}
		return a, nil

	case playedMsg:
		return a, a.handlePlayed(msg)

	case finalizedMsg:
		return a.handleFinalized(msg)

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}
	return a, nil
}

func (a *AttemptScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	if a.session.Finalizing() || a.session.Sealed() {
		return nil
	}

	if a.confirmLeave {
		switch key {
		case "y", "Y":
			// The attempt stays open on the platform and can be resumed.
			return tea.Quit
		case "n", "N", "esc":
			a.confirmLeave = false
		}
		return nil
	}
	if a.confirmFinish {
		switch key {
		case "y", "Y":
			a.confirmFinish = false
			return a.finish(false)
		case "n", "N", "esc":
			a.confirmFinish = false
		}
		return nil
	}
	if a.picker {
		return a.handlePickerKey(key)
	}

	switch key {
	case "esc":
		a.confirmLeave = true
		return nil
	case "ctrl+n":
		return a.move(a.session.Next)
	case "ctrl+p":
		return a.move(a.session.Previous)
	case "ctrl+f":
		if !a.session.CanFinish(false) {
			a.fail(sess.ErrCannotFinish.Error())
			return nil
		}
		a.confirmFinish = true
		return nil
	case "ctrl+g":
		if a.session.Quiz.AllowQuestionPicker {
			a.picker = true
			a.pickerCursor = a.session.Nav.Current()
		}
		return nil
	}

	switch a.session.Question().Type {
	case quiz.MultipleChoice, quiz.Listening:
		return a.handleChoiceKey(msg)
	case quiz.TrueFalse:
		return a.handleTrueFalseKey(msg)
	case quiz.FillInTheBlank:
		return a.handleBlankKey(msg)
	case quiz.Pronunciation:
		return a.handlePronunciationKey(key)
	}
	return nil
}

func (a *AttemptScreen) handlePickerKey(key string) tea.Cmd {
	n := len(a.session.Quiz.Questions)
	switch key {
	case "esc", "ctrl+g":
		a.picker = false
	case "left", "h", "up", "k":
		if a.pickerCursor > 0 {
			a.pickerCursor--
		}
	case "right", "l", "down", "j":
		if a.pickerCursor < n-1 {
			a.pickerCursor++
		}
	case "enter":
		i := a.pickerCursor
		if i == a.session.Nav.Current() {
			a.picker = false
			return nil
		}
		if !a.session.CanNavigateTo(i) {
			a.fail("That question isn't available yet.")
			return nil
		}
		a.picker = false
		return a.move(func() (*submission.Pending, error) { return a.session.JumpTo(i) })
	}
	return nil
}

func (a *AttemptScreen) handleChoiceKey(msg tea.KeyMsg) tea.Cmd {
	q := a.session.Question()
	key := msg.String()
	switch key {
	case "left", "h":
		return a.move(a.session.Previous)
	case "right", "l":
		return a.move(a.session.Next)
	case "space", " ":
		if q.Type == quiz.Listening {
			return a.play()
		}
		return nil
	case "enter":
		return a.choose(a.choices.Cursor)
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(q.Options) {
		a.choices.Cursor = n - 1
		return a.choose(n - 1)
	}
	a.choices, _ = a.choices.Update(msg)
	return nil
}

func (a *AttemptScreen) choose(i int) tea.Cmd {
	q := a.session.Question()
	if i < 0 || i >= len(q.Options) {
		return nil
	}
	p, err := a.session.SelectOption(q.Options[i].ID)
	a.syncAnswer()
	if err != nil {
		a.fail(err.Error())
		return nil
	}
	if p == nil && q.Type == quiz.Listening {
		a.info("Listen to the audio to submit your answer.")
	}
	return a.send(p)
}

func (a *AttemptScreen) handleTrueFalseKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "h":
		return a.move(a.session.Previous)
	case "right", "l":
		return a.move(a.session.Next)
	case "1", "t", "T":
		a.choices.Cursor = 0
		return a.answerTrueFalse(true)
	case "2", "f", "F":
		a.choices.Cursor = 1
		return a.answerTrueFalse(false)
	case "enter":
		return a.answerTrueFalse(a.choices.Cursor == 0)
	}
	a.choices, _ = a.choices.Update(msg)
	return nil
}

func (a *AttemptScreen) answerTrueFalse(v bool) tea.Cmd {
	p, err := a.session.SetTrueFalse(v)
	a.syncAnswer()
	if err != nil {
		a.fail(err.Error())
		return nil
	}
	return a.send(p)
}

func (a *AttemptScreen) handleBlankKey(msg tea.KeyMsg) tea.Cmd {
	if len(a.blanks) == 0 {
		return nil
	}
	switch msg.String() {
	case "tab", "down":
		return a.focusBlank((a.focus + 1) % len(a.blanks))
	case "shift+tab", "up":
		return a.focusBlank((a.focus - 1 + len(a.blanks)) % len(a.blanks))
	case "enter":
		p, err := a.session.CommitBlanks()
		if err != nil {
			a.fail(err.Error())
			return nil
		}
		if p == nil && !a.session.CanProceed() {
			a.info("Fill in every blank first.")
			return nil
		}
		a.syncAnswer()
		return a.send(p)
	}

	var cmd tea.Cmd
	a.blanks[a.focus], cmd = a.blanks[a.focus].Update(msg)
	if a.session.SetBlank(a.focus, a.blanks[a.focus].Value()) {
		// Edited text is no longer what the server judged.
		a.blanks[a.focus].Mark(nil)
	}
	return cmd
}

func (a *AttemptScreen) focusBlank(i int) tea.Cmd {
	a.blanks[a.focus].Blur()
	a.focus = i
	return a.blanks[a.focus].Focus()
}

func (a *AttemptScreen) handlePronunciationKey(key string) tea.Cmd {
	switch key {
	case "left", "h":
		return a.move(a.session.Previous)
	case "right", "l":
		return a.move(a.session.Next)
	case "r", "R", "space", " ":
		return a.toggleRecording()
	}
	return nil
}

func (a *AttemptScreen) toggleRecording() tea.Cmd {
	rec := a.session.Recorder
	if rec == nil {
		a.fail(sess.ErrNoMicrophone.Error())
		return nil
	}
	switch rec.State() {
	case pronunciation.Recording:
		clip, ref, err := a.session.StopRecording()
		if err != nil {
			a.fail(err.Error())
			return nil
		}
		return a.upload(ref, clip)
	case pronunciation.Processing:
		return nil
	}
	if !rec.Ready() {
		a.info(checkingMic)
		return a.initMic()
	}
	if err := a.session.StartRecording(a.ctx); err != nil {
		a.fail(micMessage(err))
		return nil
	}
	a.clearToast()
	return nil
}

func (a *AttemptScreen) move(step func() (*submission.Pending, error)) tea.Cmd {
	before := a.session.Nav.Current()
	p, err := step()
	cmd := a.send(p)
	if err != nil {
		if errors.Is(err, navigation.ErrMoveNotAllowed) {
			a.info(moveHint(a.session))
		} else {
			a.fail(err.Error())
		}
		return cmd
	}
	if a.session.Nav.Current() != before {
		a.clearToast()
		a.sync()
		if len(a.blanks) > 0 {
			return tea.Batch(cmd, a.blanks[a.focus].Focus())
		}
	}
	return cmd
}

func moveHint(s *sess.Session) string {
	if !s.CanProceed() && s.Quiz.NavigationMode != quiz.NavFree {
		return "Answer this question to continue."
	}
	return "You can't go there from here."
}

func (a *AttemptScreen) finish(forced bool) tea.Cmd {
	if err := a.session.BeginFinalize(forced); err != nil {
		a.fail(err.Error())
		return nil
	}
	a.info("Submitting your attempt...")
	return a.finalize()
}

func (a *AttemptScreen) resetOverlays() {
	a.picker = false
	a.confirmFinish = false
	a.confirmLeave = false
}

// send runs a pending submission in the background.
func (a *AttemptScreen) send(p *submission.Pending) tea.Cmd {
	if p == nil {
		return nil
	}
	a.inFlight++
	ctx, s := a.ctx, a.session
	return func() tea.Msg {
		return submittedMsg{Outcome: s.Send(ctx, p)}
	}
}

func (a *AttemptScreen) handleSubmitted(msg submittedMsg) tea.Cmd {
	if a.inFlight > 0 {
		a.inFlight--
	}
	r := a.session.Reconcile(msg.Outcome)
	if r.Stale {
		return nil
	}
	if r.Err != nil {
		a.fail("Couldn't save your answer: " + api.UserMessage(r.Err))
	}
	if r.QuestionID == a.session.Question().ID {
		a.syncAnswer()
	}
	return nil
}

func (a *AttemptScreen) upload(ref pronunciation.SampleRef, clip *audio.Clip) tea.Cmd {
	if a.processor == nil {
		_ = a.session.RecordingFailed(ref)
		a.fail("Recordings can't be uploaded right now.")
		return nil
	}
	a.info("Uploading your recording...")
	ctx, proc := a.ctx, a.processor
	return func() tea.Msg {
		res, err := proc.Process(ctx, "", clip)
		if err != nil {
			return uploadedMsg{Ref: ref, Err: err}
		}
		return uploadedMsg{Ref: ref, URL: res.URL}
	}
}

func (a *AttemptScreen) handleUploaded(msg uploadedMsg) tea.Cmd {
	if msg.Err != nil {
		if err := a.session.RecordingFailed(msg.Ref); err != nil {
			a.logger.Debug("upload failure for a discarded recording", "error", msg.Err)
			return nil
		}
		a.fail("Couldn't upload your recording: " + api.UserMessage(msg.Err))
		return nil
	}
	p, err := a.session.AttachAudioURL(msg.Ref, msg.URL)
	if err != nil {
		a.logger.Debug("upload result dropped", "error", err)
		return nil
	}
	a.clearToast()
	return a.send(p)
}

func (a *AttemptScreen) initMic() tea.Cmd {
	ctx, s := a.ctx, a.session
	return func() tea.Msg {
		return micInitMsg{Err: s.InitMicrophone(ctx)}
	}
}

func (a *AttemptScreen) play() tea.Cmd {
	q := a.session.Question()
	if a.playing {
		return nil
	}
	if a.player == nil || q.AudioURL == "" {
		a.fail("Audio playback is not available.")
		return nil
	}
	limit := time.Duration(q.MaxListeningTimeSeconds) * time.Second
	if limit <= 0 {
		limit = defaultListeningLimit
	}
	a.playing = true
	a.info("Playing...")
	ctx, player, url, id := a.ctx, a.player, q.AudioURL, q.ID
	return func() tea.Msg {
		return playedMsg{QuestionID: id, Err: player.Play(ctx, url, limit)}
	}
}

func (a *AttemptScreen) handlePlayed(msg playedMsg) tea.Cmd {
	a.playing = false
	if msg.Err != nil {
		a.fail("Couldn't play the audio: " + msg.Err.Error())
		return nil
	}
	a.clearToast()
	if msg.QuestionID != a.session.Question().ID {
		return nil
	}
	p, err := a.session.MarkListened()
	if err != nil {
		return nil
	}
	return a.send(p)
}

func (a *AttemptScreen) finalize() tea.Cmd {
	ctx, s := a.ctx, a.session
	return func() tea.Msg {
		at, err := s.Finalize(ctx)
		return finalizedMsg{Attempt: at, Err: err}
	}
}

func (a *AttemptScreen) handleFinalized(msg finalizedMsg) (screen.Screen, tea.Cmd) {
	if _, err := a.session.EndFinalize(msg.Attempt, msg.Err); err != nil {
		a.fail("Couldn't submit your attempt: " + api.UserMessage(err) + " Press Ctrl+F to try again.")
		return a, a.session.Countdown()
	}
	next := results.New(a.ctx, a.session.Quiz, *a.session.Result(), a.fetcher)
	return a, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (a *AttemptScreen) hasPronunciation() bool {
	return a.session.Quiz.HasType(quiz.Pronunciation)
}

func micMessage(err error) string {
	var de *pronunciation.DeviceError
	if errors.As(err, &de) {
		return de.Hint()
	}
	return err.Error()
}

func (a *AttemptScreen) info(msg string) {
	a.toast, a.toastError = msg, false
}

func (a *AttemptScreen) fail(msg string) {
	a.toast, a.toastError = msg, true
}

func (a *AttemptScreen) clearToast() {
	a.toast, a.toastError = "", false
}
