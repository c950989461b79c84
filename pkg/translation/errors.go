package translation

import (
	"errors"
	"fmt"
)

// 预定义错误
var (
	// ErrTranslationService 翻译服务调用失败
	ErrTranslationService = errors.New("translation service error")

	// ErrMissingTranslationParams 缺少源语言、目标语言或模型
	ErrMissingTranslationParams = errors.New("translation requires source language, target language and model")
)

// TranslationServiceError 某个分块的翻译失败
type TranslationServiceError struct {
	Chunk      int    // 分块序号，从 1 开始
	Total      int    // 分块总数
	StatusCode int    // 上游状态码，0 表示没有收到响应
	Body       string // 上游响应体
	Err        error  // 原因
}

// Error 实现error接口
func (e *TranslationServiceError) Error() string {
	msg := fmt.Sprintf("translation of chunk %d/%d failed", e.Chunk, e.Total)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap 返回原因错误
func (e *TranslationServiceError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrTranslationService) 成立
func (e *TranslationServiceError) Is(target error) bool {
	return target == ErrTranslationService
}
