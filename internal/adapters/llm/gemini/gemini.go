package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/slavuta-ads/adsbot/internal/adapters/llm"
)

type API struct {
	client    *genai.Client
	modelName string
	params    llm.GenerationParameters
	logger    *log.Entry
}

const DefaultModel = "gemini-2.5-flash-lite"

func NewGemini(ctx context.Context, apiKey, model string, logger *log.Entry) (*API, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}
	api := &API{
		client: client,
		logger: logger,
	}
	return api.WithModel(model).WithParameters(nil), nil
}

func (g *API) Close() error {
	return g.client.Close()
}

func (g *API) WithModel(modelName string) *API {
	if modelName == "" {
		modelName = DefaultModel
	}
	g.modelName = modelName
	return g
}

func (g *API) WithParameters(parameters *llm.GenerationParameters) *API {
	if parameters == nil {
		parameters = &llm.GenerationParameters{
			Temperature:      0,
			TopK:             1,
			TopP:             1,
			MaxOutputTokens:  128,
			ResponseMIMEType: "text/plain",
		}
	}
	g.params = *parameters
	return g
}

// ChatCompletion builds a model per call so that system instructions never leak between requests.
func (g *API) ChatCompletion(ctx context.Context, messages []llm.ChatCompletionMessage) (llm.ChatCompletionResponse, error) {
	if len(messages) == 0 {
		return llm.ChatCompletionResponse{}, fmt.Errorf("no messages")
	}
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(g.params.Temperature)
	model.SetTopK(g.params.TopK)
	model.SetTopP(g.params.TopP)
	model.SetMaxOutputTokens(g.params.MaxOutputTokens)
	model.ResponseMIMEType = g.params.ResponseMIMEType

	session := model.StartChat()
	last, history := messages[len(messages)-1], messages[:len(messages)-1]
	for _, message := range history {
		if message.Role == llm.RoleSystem {
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(message.Content)}}
			continue
		}
		role := "user"
		if message.Role == llm.RoleAssistant {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(message.Content)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return llm.ChatCompletionResponse{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		g.logger.WithField("model", g.modelName).Debug("empty completion")
		return llm.ChatCompletionResponse{}, nil
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		fmt.Fprintf(&b, "%v", part)
	}
	return llm.ChatCompletionResponse{
		Choices: []llm.ChatCompletionChoice{{Message: llm.ChatCompletionMessage{Role: llm.RoleAssistant, Content: b.String()}}},
	}, nil
}
