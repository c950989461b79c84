package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const providerName = "openai"

// Config OpenAI 兼容接口配置
type Config struct {
	APIKey  string `json:"api_key" mapstructure:"api_key"`
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	HTTPClient *http.Client `json:"-"`
}

// Client OpenAI 兼容的补全客户端
type Client struct {
	client *openai.Client
	logger *zap.Logger
}

// New 创建客户端，BaseURL 为空时使用官方地址
func New(config Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		// go-openai 的路径以斜杠开头，去掉结尾斜杠避免双斜杠
		cfg.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	if config.HTTPClient != nil {
		cfg.HTTPClient = config.HTTPClient
	}

	return &Client{client: openai.NewClientWithConfig(cfg), logger: logger}
}

// Generate 以单条用户消息发送提示词
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &providers.ServiceError{Provider: providerName, StatusCode: http.StatusOK, Err: providers.ErrMalformedResponse}
	}

	c.logger.Debug("chat completion finished",
		zap.String("model", model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return resp.Choices[0].Message.Content, nil
}

func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &providers.ServiceError{
			Provider:   providerName,
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
			Err:        err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &providers.ServiceError{
			Provider:   providerName,
			StatusCode: reqErr.HTTPStatusCode,
			Err:        err,
		}
	}
	return &providers.ServiceError{Provider: providerName, Err: err}
}
