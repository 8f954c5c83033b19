package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"

	"github.com/twinoai/twino/pkg/twin"
)

// DefaultGeminiModel is the Gemini model used for extraction.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini extracts profiles with a Gemini response schema.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float64
}

var _ Extractor = (*Gemini)(nil)

// NewGemini creates a Gemini extractor using the Gemini API backend.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	cfg := newConfig(DefaultGeminiModel, opts)
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.httpClient,
	}
	if cfg.baseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.baseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("extract: gemini client: %w", err)
	}
	return &Gemini{client: client, model: cfg.model, temperature: cfg.temperature}, nil
}

func (g *Gemini) Extract(ctx context.Context, transcript, documents string) (twin.Profile, error) {
	if err := checkTranscript(transcript); err != nil {
		return twin.Profile{}, err
	}
	schema, err := ProfileSchema()
	if err != nil {
		return twin.Profile{}, err
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(systemPrompt)}},
		Temperature:       genai.Ptr(float32(g.temperature)),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    geminiSchema(schema),
	}
	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt(transcript, documents), genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) {
			err = apiErr.Unwrap()
		}
		return twin.Profile{}, fmt.Errorf("extract: gemini: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return twin.Profile{}, fmt.Errorf("extract: gemini: no candidates")
	}
	c := resp.Candidates[0]
	if c.FinishReason != genai.FinishReasonStop {
		return twin.Profile{}, fmt.Errorf("extract: gemini: unexpected finish reason: %s", c.FinishReason)
	}
	if c.Content == nil {
		return twin.Profile{}, ErrNoContent
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		sb.WriteString(p.Text)
	}
	return Parse(sb.String())
}
