// Package extract derives a twin profile from a finished interview
// transcript. It is the fallback used when the realtime model spoke its
// closing line but never emitted the profile block, or when the session
// ended for silence.
//
// Two implementations are provided:
//
//   - [OpenAI]: chat completion with a strict json_schema response format
//   - [Gemini]: GenerateContent with a response schema
//
// Both share the prompt, the schema derived from [twin.Profile] and the
// lenient output parser.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twinoai/twino/pkg/twin"
)

// Extractor derives a profile from a transcript.
type Extractor interface {
	// Extract returns the normalized profile. documents is optional
	// reference text such as a CV.
	Extract(ctx context.Context, transcript, documents string) (twin.Profile, error)
}

var (
	ErrEmptyTranscript = errors.New("extract: empty transcript")
	ErrNoContent       = errors.New("extract: no content in model response")
)

// Chain tries each extractor in order and returns the first success.
type Chain []Extractor

func (c Chain) Extract(ctx context.Context, transcript, documents string) (twin.Profile, error) {
	if len(c) == 0 {
		return twin.Profile{}, errors.New("extract: no extractor configured")
	}
	var errs []error
	for i, e := range c {
		p, err := e.Extract(ctx, transcript, documents)
		if err == nil {
			return p, nil
		}
		if ctx.Err() != nil {
			return twin.Profile{}, err
		}
		errs = append(errs, fmt.Errorf("extractor %d: %w", i, err))
	}
	return twin.Profile{}, errors.Join(errs...)
}

func checkTranscript(transcript string) error {
	if strings.TrimSpace(transcript) == "" || strings.TrimSpace(transcript) == twin.Placeholder {
		return ErrEmptyTranscript
	}
	return nil
}
