package pronunciation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/lingoquiz/internal/llm"
)

var sampleSchema = &llm.Schema{
	Name:        "pronunciation-sample",
	Description: "A sentence for pronunciation practice with its IPA transcript",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"realTranscript":        map[string]any{"type": "string", "minLength": 1},
			"ipaTranscript":         map[string]any{"type": "string", "minLength": 1},
			"transcriptTranslation": map[string]any{"type": "string"},
		},
		"required":             []string{"realTranscript", "ipaTranscript", "transcriptTranslation"},
		"additionalProperties": false,
	},
}

const samplePrompt = `You write short English sentences for pronunciation practice.
Reply with JSON only. realTranscript is the sentence, ipaTranscript its
broad IPA transcription with one group per word, and transcriptTranslation
a plain-language gloss of the meaning.`

// LLMSampleSource asks a language model for practice sentences. It serves
// practice when the platform's sample endpoint is unavailable.
type LLMSampleSource struct {
	provider llm.Provider
	newID    func() string
}

func NewLLMSampleSource(p llm.Provider, newID func() string) *LLMSampleSource {
	return &LLMSampleSource{provider: p, newID: newID}
}

func (s *LLMSampleSource) Sample(ctx context.Context, level, customText string) (*Sample, error) {
	custom := strings.TrimSpace(customText)
	var ask string
	if custom != "" {
		ask = fmt.Sprintf("Transcribe exactly this text, keeping realTranscript unchanged: %q", custom)
	} else {
		ask = fmt.Sprintf("Write one new sentence of 4 to 10 words for a learner at level %q.", levelOrDefault(level))
	}

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, "pronunciation-sample"), llm.Request{
		System:      samplePrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: ask}},
		Schema:      sampleSchema,
		MaxTokens:   512,
		Temperature: 0.8,
	})
	if err != nil {
		return nil, fmt.Errorf("generate sample: %w", err)
	}

	var out struct {
		RealTranscript        string `json:"realTranscript"`
		IPATranscript         string `json:"ipaTranscript"`
		TranscriptTranslation string `json:"transcriptTranslation"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("decode sample: %w", err)
	}

	text := out.RealTranscript
	if custom != "" {
		// The learner's words are the reference, whatever the model echoed.
		text = custom
	}
	return &Sample{
		ID:          s.newID(),
		Text:        text,
		IPA:         out.IPATranscript,
		Translation: out.TranscriptTranslation,
		Level:       level,
		Custom:      custom != "",
	}, nil
}

func levelOrDefault(level string) string {
	if level == "" {
		return "easy"
	}
	return level
}
