package translation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// 默认超时
const (
	// DefaultChunkTimeout 整篇分块翻译时单次请求的超时
	DefaultChunkTimeout = 300 * time.Second

	// DefaultTextTimeout 单段文本翻译的超时
	DefaultTextTimeout = 120 * time.Second
)

// ProgressFunc 进度回调，done 为已完成的分块数
type ProgressFunc func(done, total int)

// Orchestrator 翻译编排器
// 按序号收集每个分块的结果，任何一块失败都会中止整个任务
type Orchestrator struct {
	client      providers.Completer
	concurrency int
	timeout     time.Duration
	textTimeout time.Duration
	logger      *zap.Logger
	progress    ProgressFunc
}

// Option 编排器选项
type Option func(*Orchestrator)

// WithConcurrency 同时在途的请求数上限，默认 1 即严格串行
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithTimeout 单次请求超时
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithTextTimeout TranslateText 的请求超时
func WithTextTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.textTimeout = d
		}
	}
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProgress 设置进度回调
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// NewOrchestrator 创建编排器
func NewOrchestrator(client providers.Completer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:      client,
		concurrency: 1,
		timeout:     DefaultChunkTimeout,
		textTimeout: DefaultTextTimeout,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Translate 翻译全部分块，结果去掉首尾空白后以空行连接
// 失败时不返回任何部分结果
func (o *Orchestrator) Translate(ctx context.Context, chunks []string, sourceLang, targetLang, model string) (string, error) {
	if err := validateParams(sourceLang, targetLang, model); err != nil {
		return "", err
	}

	total := len(chunks)
	results := make([]string, total)

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	o.logger.Info("starting translation",
		zap.Int("chunks", total),
		zap.String("source", sourceLang),
		zap.String("target", targetLang),
		zap.String("model", model),
		zap.Int("concurrency", o.concurrency))

	for i, chunk := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			o.logger.Debug("translating chunk",
				zap.Int("chunk", i+1),
				zap.Int("total", total),
				zap.String("preview", preview(chunk)))

			text, err := o.generate(gctx, model, BuildPrompt(sourceLang, targetLang, chunk), o.timeout)
			if err != nil {
				o.logger.Error("chunk translation failed",
					zap.Int("chunk", i+1),
					zap.Int("total", total),
					zap.Error(err))
				return newServiceError(i+1, total, err)
			}
			results[i] = strings.TrimSpace(text)

			mu.Lock()
			done++
			current := done
			mu.Unlock()

			o.logger.Info("chunk translated", zap.Int("done", current), zap.Int("total", total))
			if o.progress != nil {
				o.progress(current, total)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}
	// 父 ctx 在最后一批启动前被取消
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return strings.Join(results, "\n\n"), nil
}

// TranslateText 单次请求翻译一段文本
func (o *Orchestrator) TranslateText(ctx context.Context, text, sourceLang, targetLang, model string) (string, error) {
	if err := validateParams(sourceLang, targetLang, model); err != nil {
		return "", err
	}

	out, err := o.generate(ctx, model, BuildTextPrompt(sourceLang, targetLang, text), o.textTimeout)
	if err != nil {
		return "", newServiceError(1, 1, err)
	}
	return strings.TrimSpace(out), nil
}

// generate 每次请求单独计时
func (o *Orchestrator) generate(ctx context.Context, model, prompt string, timeout time.Duration) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return o.client.Generate(callCtx, model, prompt)
}

func validateParams(sourceLang, targetLang, model string) error {
	if strings.TrimSpace(sourceLang) == "" || strings.TrimSpace(targetLang) == "" || strings.TrimSpace(model) == "" {
		return ErrMissingTranslationParams
	}
	return nil
}

func newServiceError(chunk, total int, err error) *TranslationServiceError {
	svcErr := &TranslationServiceError{Chunk: chunk, Total: total, Err: err}
	var upstream *providers.ServiceError
	if errors.As(err, &upstream) {
		svcErr.StatusCode = upstream.StatusCode
		svcErr.Body = upstream.Body
	}
	return svcErr
}

// preview 日志中显示的分块摘要
func preview(chunk string) string {
	flat := strings.Join(strings.Fields(chunk), " ")
	return runewidth.Truncate(flat, 60, "...")
}
