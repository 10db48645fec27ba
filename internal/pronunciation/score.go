package pronunciation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/lingoquiz/internal/audio"
)

// Score is the scoring service's verdict on one recording.
type Score struct {
	Accuracy   float64
	RealIPA    string
	MatchedIPA string

	// LetterMask has one whitespace-separated group per reference word; a
	// '1' marks a correctly pronounced letter.
	LetterMask string
}

// Result is the outcome of processing one clip.
type Result struct {
	URL   string
	Score *Score
}

// Uploader stores a clip and returns its stable URL.
type Uploader interface {
	Upload(ctx context.Context, clip *audio.Clip) (string, error)
}

// Scorer grades base64 audio against a reference text.
type Scorer interface {
	Score(ctx context.Context, text, base64Audio string) (*Score, error)
}

// Processor runs the upload-then-score step.
type Processor struct {
	uploader Uploader
	scorer   Scorer
}

// NewProcessor returns a processor. A nil scorer uploads without scoring.
func NewProcessor(u Uploader, s Scorer) *Processor {
	return &Processor{uploader: u, scorer: s}
}

// Process uploads clip and, once the upload resolves, scores it against text.
func (p *Processor) Process(ctx context.Context, text string, clip *audio.Clip) (*Result, error) {
	if clip == nil || len(clip.Data) == 0 {
		return nil, errors.New("empty recording")
	}
	url, err := p.uploader.Upload(ctx, clip)
	if err != nil {
		return nil, fmt.Errorf("upload recording: %w", err)
	}
	res := &Result{URL: url}
	if p.scorer == nil {
		return res, nil
	}
	score, err := p.scorer.Score(ctx, text, clip.Base64())
	if err != nil {
		return nil, fmt.Errorf("score recording: %w", err)
	}
	res.Score = score
	return res, nil
}

// Letter is one character of a reference word.
type Letter struct {
	Char    rune
	Correct bool
}

// Word is a reference word with per-letter correctness.
type Word struct {
	Text    string
	Letters []Letter
}

// Words aligns a letter mask with the reference text word by word. Mask
// positions that are missing count as incorrect.
func Words(reference, mask string) []Word {
	refWords := strings.Fields(reference)
	maskWords := strings.Fields(mask)

	out := make([]Word, len(refWords))
	for i, w := range refWords {
		var m []rune
		if i < len(maskWords) {
			m = []rune(maskWords[i])
		}
		letters := make([]Letter, 0, utf8.RuneCountInString(w))
		for j, r := range []rune(w) {
			letters = append(letters, Letter{Char: r, Correct: j < len(m) && m[j] == '1'})
		}
		out[i] = Word{Text: w, Letters: letters}
	}
	return out
}

// Stats is the running session average.
type Stats struct {
	Sum   float64
	Count int
}

// Add records one score.
func (s *Stats) Add(accuracy float64) {
	s.Sum += accuracy
	s.Count++
}

// Average returns the mean score, or 0 before any attempt.
func (s Stats) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}
