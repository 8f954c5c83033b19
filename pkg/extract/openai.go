package extract

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/twinoai/twino/pkg/twin"
)

// DefaultOpenAIModel is the chat model used for extraction.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI extracts profiles with a chat completion constrained by the
// profile JSON schema.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float64
}

var _ Extractor = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI extractor.
func NewOpenAI(apiKey string, opts ...Option) *OpenAI {
	cfg := newConfig(DefaultOpenAIModel, opts)
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.httpClient),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	client := openai.NewClient(clientOpts...)
	return &OpenAI{
		client:      &client,
		model:       cfg.model,
		temperature: cfg.temperature,
	}
}

func (o *OpenAI) Extract(ctx context.Context, transcript, documents string) (twin.Profile, error) {
	if err := checkTranscript(transcript); err != nil {
		return twin.Profile{}, err
	}
	schema, err := ProfileSchema()
	if err != nil {
		return twin.Profile{}, err
	}
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(transcript, documents)),
		},
		Temperature: param.NewOpt(o.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   SchemaName,
					Schema: strictSchema(schema),
					Strict: param.NewOpt(true),
				},
			},
		},
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return twin.Profile{}, fmt.Errorf("extract: openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return twin.Profile{}, fmt.Errorf("extract: openai: no choices")
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return twin.Profile{}, fmt.Errorf("extract: openai: blocked: %s", choice.Message.Refusal)
	}
	if choice.FinishReason != "stop" {
		return twin.Profile{}, fmt.Errorf("extract: openai: unexpected finish reason: %s", choice.FinishReason)
	}
	return Parse(choice.Message.Content)
}
