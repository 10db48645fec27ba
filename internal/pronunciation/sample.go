package pronunciation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/lingoquiz/internal/api"
	"github.com/abhisek/lingoquiz/internal/audio"
)

// MaxCustomWords caps the length of a learner-supplied practice text.
const MaxCustomWords = 20

var (
	ErrCustomTextEmpty   = errors.New("enter some text to practise")
	ErrCustomTextTooLong = fmt.Errorf("custom text must be at most %d words", MaxCustomWords)
)

// ValidateCustomText checks a learner-supplied practice text.
func ValidateCustomText(s string) error {
	words := strings.Fields(s)
	switch {
	case len(words) == 0:
		return ErrCustomTextEmpty
	case len(words) > MaxCustomWords:
		return ErrCustomTextTooLong
	}
	return nil
}

// Sample is a reference text to pronounce.
type Sample struct {
	ID          string
	Text        string
	IPA         string
	Translation string
	Level       string
	Custom      bool
}

// SampleSource produces practice samples. A non-empty customText asks for
// that exact text to be paired with its transcript.
type SampleSource interface {
	Sample(ctx context.Context, level, customText string) (*Sample, error)
}

// APIBackend adapts the platform client to the pronunciation interfaces.
type APIBackend struct {
	client *api.Client
	newID  func() string
}

// NewAPIBackend returns a backend over client. newID names fetched samples.
func NewAPIBackend(client *api.Client, newID func() string) *APIBackend {
	return &APIBackend{client: client, newID: newID}
}

func (b *APIBackend) Upload(ctx context.Context, clip *audio.Clip) (string, error) {
	res, err := b.client.UploadResource(ctx, clip.Filename(), clip.MIME, clip.Data)
	if err != nil {
		return "", err
	}
	return res.URL, nil
}

func (b *APIBackend) Score(ctx context.Context, text, base64Audio string) (*Score, error) {
	acc, err := b.client.PronunciationAccuracy(ctx, api.AccuracyRequest{Text: text, Base64Audio: base64Audio})
	if err != nil {
		return nil, err
	}
	return &Score{
		Accuracy:   float64(acc.PronunciationAccuracy),
		RealIPA:    acc.RealTranscriptsIPA,
		MatchedIPA: acc.MatchedTranscriptsIPA,
		LetterMask: acc.IsLetterCorrectAllWords,
	}, nil
}

func (b *APIBackend) Sample(ctx context.Context, level, customText string) (*Sample, error) {
	s, err := b.client.PronunciationSample(ctx, level, customText)
	if err != nil {
		return nil, err
	}
	return &Sample{
		ID:          b.newID(),
		Text:        s.RealTranscript,
		IPA:         s.IPATranscript,
		Translation: s.TranscriptTranslation,
		Level:       level,
		Custom:      strings.TrimSpace(customText) != "",
	}, nil
}
