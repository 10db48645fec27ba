package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// UploadResult is the stable location of an uploaded file.
type UploadResult struct {
	URL string `json:"url"`
}

// Sample is a reference text for pronunciation practice.
type Sample struct {
	RealTranscript        string `json:"realTranscript"`
	IPATranscript         string `json:"ipaTranscript"`
	TranscriptTranslation string `json:"transcriptTranslation,omitempty"`
}

// AccuracyRequest asks the scoring service to grade a recording.
type AccuracyRequest struct {
	Text        string `json:"text"`
	Base64Audio string `json:"base64Audio"`
}

// Accuracy is the scoring service's verdict.
type Accuracy struct {
	PronunciationAccuracy   Number `json:"pronunciationAccuracy"`
	RealTranscriptsIPA      string `json:"realTranscriptsIpa"`
	MatchedTranscriptsIPA   string `json:"matchedTranscriptsIpa"`
	IsLetterCorrectAllWords string `json:"isLetterCorrectAllWords"`
}

// UploadResource stores a file and returns its URL.
func (c *Client) UploadResource(ctx context.Context, filename, mime string, data []byte) (*UploadResult, error) {
	const op = "upload resource"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if mime == "" {
		mime = "application/octet-stream"
	}
	h.Set("Content-Type", mime)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out UploadResult
	err = c.do(ctx, call{
		op:          op,
		method:      http.MethodPost,
		path:        "/resources",
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.URL == "" {
		return nil, &ErrTransport{Op: op, Err: fmt.Errorf("empty url in response")}
	}
	return &out, nil
}

// PronunciationSample requests a reference text. A non-empty customText asks
// the service to pair that text with its transcript instead of picking one.
func (c *Client) PronunciationSample(ctx context.Context, level, customText string) (*Sample, error) {
	q := url.Values{}
	if level != "" {
		q.Set("level", level)
	}
	if strings.TrimSpace(customText) != "" {
		q.Set("customText", customText)
	}
	var raw json.RawMessage
	if err := c.get(ctx, "pronunciation sample", "/pronunciation/sample", q, &raw); err != nil {
		return nil, err
	}
	if err := validate("sample", sampleSchema, raw); err != nil {
		return nil, &ErrTransport{Op: "pronunciation sample", Err: err}
	}
	var s Sample
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &ErrTransport{Op: "pronunciation sample", Err: err}
	}
	return &s, nil
}

// PronunciationAccuracy scores base64 audio against the reference text.
func (c *Client) PronunciationAccuracy(ctx context.Context, req AccuracyRequest) (*Accuracy, error) {
	const op = "pronunciation accuracy"
	var raw json.RawMessage
	if err := c.postJSON(ctx, op, "/pronunciation/accuracy", req, &raw); err != nil {
		return nil, err
	}
	if err := validate("accuracy", accuracySchema, raw); err != nil {
		return nil, &ErrTransport{Op: op, Err: err}
	}
	var a Accuracy
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, &ErrTransport{Op: op, Err: err}
	}
	return &a, nil
}
