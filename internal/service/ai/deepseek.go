package ai

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultDeepSeekBaseURL = "https://api.deepseek.com"
	DefaultDeepSeekModel   = "deepseek-chat"
)

// DeepSeekConfig configures a DeepSeekModel.
type DeepSeekConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	HTTPClient  *http.Client
}

// DeepSeekModel is an eino chat model backed by DeepSeek's OpenAI-compatible
// chat completions API.
type DeepSeekModel struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

var _ model.BaseChatModel = (*DeepSeekModel)(nil)

// NewDeepSeekModel validates cfg and returns a model. An API key is required.
func NewDeepSeekModel(cfg DeepSeekConfig) (*DeepSeekModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("deepseek api key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultDeepSeekBaseURL
	}
	name := cfg.Model
	if name == "" {
		name = DefaultDeepSeekModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = baseURL
	clientCfg.HTTPClient = httpClient

	return &DeepSeekModel{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       name,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// Generate performs one blocking completion request. A reply without content
// is reported as an error.
func (m *DeepSeekModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{
		Model:       &m.model,
		MaxTokens:   &m.maxTokens,
		Temperature: &m.temperature,
	}, opts...)

	req := openai.ChatCompletionRequest{Messages: make([]openai.ChatCompletionMessage, 0, len(input))}
	if options.Model != nil {
		req.Model = *options.Model
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	if options.Temperature != nil {
		req.Temperature = *options.Temperature
	}
	for _, msg := range input {
		if msg == nil {
			continue
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: string(msg.Role), Content: msg.Content})
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "create chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("completion response has no choices")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return nil, errors.Errorf("completion response has no content (finish reason %q)", resp.Choices[0].FinishReason)
	}
	return schema.AssistantMessage(content, nil), nil
}

// Stream wraps Generate in a single-chunk stream; the service never streams.
func (m *DeepSeekModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}
