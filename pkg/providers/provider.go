package providers

import (
	"context"
	"errors"
	"fmt"
)

// ErrMalformedResponse 响应中缺少期望的文本字段
var ErrMalformedResponse = errors.New("missing response field")

// Completer 文本补全服务
// 每次调用都是一次阻塞请求，超时由 ctx 控制
type Completer interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// CompleterFunc 函数适配器
type CompleterFunc func(ctx context.Context, model, prompt string) (string, error)

// Generate 实现 Completer
func (f CompleterFunc) Generate(ctx context.Context, model, prompt string) (string, error) {
	return f(ctx, model, prompt)
}

// ServiceError 上游服务返回的错误，带状态码和响应体
type ServiceError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

// Error 实现error接口
func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
}

// Unwrap 返回原因错误
func (e *ServiceError) Unwrap() error {
	return e.Err
}
