package openai

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"

	"github.com/slavuta-ads/adsbot/internal/adapters/llm"
)

type API struct {
	client     *openai.Client
	model      string
	parameters llm.GenerationParameters
	logger     *log.Entry
}

const DefaultModel = "gpt-4o-mini"

func NewOpenAI(apiKey, model, baseURL string, logger *log.Entry) *API {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	api := &API{
		client: openai.NewClientWithConfig(config),
		logger: logger,
	}
	return api.WithModel(model).WithParameters(nil)
}

func (o *API) WithModel(modelName string) *API {
	if modelName == "" {
		modelName = DefaultModel
	}
	o.model = modelName
	return o
}

// WithParameters sets sampling parameters; nil selects deterministic short answers.
func (o *API) WithParameters(parameters *llm.GenerationParameters) *API {
	if parameters == nil {
		parameters = &llm.GenerationParameters{
			Temperature:     0,
			TopP:            1,
			MaxOutputTokens: 128,
		}
	}
	o.parameters = *parameters
	return o
}

func (o *API) ChatCompletion(ctx context.Context, messages []llm.ChatCompletionMessage) (llm.ChatCompletionResponse, error) {
	request := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
		Temperature: o.parameters.Temperature,
		TopP:        o.parameters.TopP,
		MaxTokens:   int(o.parameters.MaxOutputTokens),
	}
	for i, msg := range messages {
		request.Messages[i] = openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}

	resp, err := o.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return llm.ChatCompletionResponse{}, errors.Wrapf(err, "openai completion with %s", o.model)
	}
	o.logger.WithFields(log.Fields{
		"model":   o.model,
		"choices": len(resp.Choices),
		"tokens":  resp.Usage.TotalTokens,
	}).Trace("completion received")

	out := llm.ChatCompletionResponse{Choices: make([]llm.ChatCompletionChoice, 0, len(resp.Choices))}
	for _, choice := range resp.Choices {
		out.Choices = append(out.Choices, llm.ChatCompletionChoice{
			Message: llm.ChatCompletionMessage{Role: choice.Message.Role, Content: choice.Message.Content},
		})
	}
	return out, nil
}
