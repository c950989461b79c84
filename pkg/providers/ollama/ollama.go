package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
	"go.uber.org/zap"
)

// DefaultBaseURL 本地 Ollama 服务地址
const DefaultBaseURL = "http://localhost:11434"

const providerName = "ollama"

// Config Ollama配置
type Config struct {
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// HTTPClient 为空时使用不带全局超时的客户端，超时由每次调用的 ctx 决定
	HTTPClient *http.Client `json:"-"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{BaseURL: DefaultBaseURL}
}

// Client Ollama客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New 创建新的Ollama客户端
func New(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		httpClient: config.HTTPClient,
		logger:     logger,
	}
}

// GenerateRequest 生成请求
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// GenerateResponse 生成响应，Response 为空指针表示缺少该字段
type GenerateResponse struct {
	Model    string  `json:"model"`
	Response *string `json:"response"`
	Done     bool    `json:"done"`
}

// VersionResponse /api/version 响应
type VersionResponse struct {
	Version string `json:"version"`
}

// Generate 调用 /api/generate，非流式
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(GenerateRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending generate request",
		zap.String("model", model),
		zap.Int("prompt_length", len(prompt)))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &providers.ServiceError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &providers.ServiceError{Provider: providerName, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &providers.ServiceError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var generateResp GenerateResponse
	if err := json.Unmarshal(respBody, &generateResp); err != nil {
		return "", &providers.ServiceError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	if generateResp.Response == nil {
		return "", &providers.ServiceError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        providers.ErrMalformedResponse,
		}
	}

	return *generateResp.Response, nil
}

// Version 查询服务版本，用于健康检查
func (c *Client) Version(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/version", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &providers.ServiceError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &providers.ServiceError{Provider: providerName, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var version VersionResponse
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		return "", fmt.Errorf("failed to decode version: %w", err)
	}
	return version.Version, nil
}
