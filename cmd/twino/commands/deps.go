package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twinoai/twino/pkg/archive"
	"github.com/twinoai/twino/pkg/cli"
	"github.com/twinoai/twino/pkg/extract"
	"github.com/twinoai/twino/pkg/prompts"
	"github.com/twinoai/twino/pkg/realtime"
	"github.com/twinoai/twino/pkg/twin"
)

func openStore(ctx *cli.Context) (*twin.Badger, error) {
	paths, err := cli.NewPaths()
	if err != nil {
		return nil, err
	}
	dir := paths.DataDir(ctx)
	if err := cli.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	slog.Debug("opening twin store", "dir", dir)
	return twin.NewBadger(twin.BadgerOptions{Dir: dir})
}

func openArchive(ctx *cli.Context) (*archive.Archive, error) {
	cfg := ctx.Archive
	if cfg == nil {
		cfg = &cli.ArchiveConfig{Backend: cli.ArchiveLocal}
	}
	switch cfg.Backend {
	case cli.ArchiveS3:
		backend, err := archive.OpenS3(archive.S3Config{
			Bucket:   cfg.Bucket,
			Prefix:   cfg.Prefix,
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return archive.New(backend), nil
	case cli.ArchiveLocal, "":
		paths, err := cli.NewPaths()
		if err != nil {
			return nil, err
		}
		backend, err := archive.NewLocal(paths.ArchiveDir(ctx))
		if err != nil {
			return nil, err
		}
		return archive.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

// newExtractor builds the fallback extractor. With no explicit choice it
// uses every provider that has a key, OpenAI first.
func newExtractor(cmdCtx context.Context, ctx *cli.Context) (extract.Extractor, error) {
	var opts []extract.Option
	if ctx.ExtractModel != "" {
		opts = append(opts, extract.WithModel(ctx.ExtractModel))
	}
	openai := func() (extract.Extractor, error) {
		if ctx.OpenAIKey() == "" {
			return nil, errors.New("openai extractor: no API key")
		}
		o := opts
		if ctx.OpenAI.BaseURL != "" {
			o = append(o, extract.WithBaseURL(ctx.OpenAI.BaseURL))
		}
		return extract.NewOpenAI(ctx.OpenAIKey(), o...), nil
	}
	gemini := func() (extract.Extractor, error) {
		if ctx.GeminiKey() == "" {
			return nil, errors.New("gemini extractor: no API key")
		}
		return extract.NewGemini(cmdCtx, ctx.GeminiKey(), opts...)
	}

	switch ctx.Extractor {
	case cli.ExtractorOpenAI:
		return openai()
	case cli.ExtractorGemini:
		return gemini()
	case cli.ExtractorChain, "":
		var chain extract.Chain
		for _, build := range []func() (extract.Extractor, error){openai, gemini} {
			e, err := build()
			if err != nil {
				if ctx.Extractor == cli.ExtractorChain {
					return nil, err
				}
				continue
			}
			chain = append(chain, e)
		}
		switch len(chain) {
		case 0:
			return nil, errors.New("no extractor configured: set openai.api_key or gemini.api_key")
		case 1:
			return chain[0], nil
		}
		return chain, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", ctx.Extractor)
	}
}

func loadQuestions(ctx *cli.Context) (prompts.QuestionSet, error) {
	if ctx.Questions == "" {
		return prompts.DefaultQuestionSet(), nil
	}
	return prompts.LoadQuestionSet(ctx.Questions)
}

func realtimeOptions(ctx *cli.Context) []realtime.Option {
	var opts []realtime.Option
	if ctx.OpenAI == nil {
		return opts
	}
	if ctx.OpenAI.Organization != "" {
		opts = append(opts, realtime.WithOrganization(ctx.OpenAI.Organization))
	}
	if ctx.OpenAI.Project != "" {
		opts = append(opts, realtime.WithProject(ctx.OpenAI.Project))
	}
	return opts
}
