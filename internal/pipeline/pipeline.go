// Package pipeline 把提取、翻译和写出串成一次文档处理任务
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nerdneilsfield/go-doc-translator/internal/document"
	"github.com/nerdneilsfield/go-doc-translator/internal/markdown"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
	"github.com/nerdneilsfield/go-doc-translator/pkg/translation"
	"go.uber.org/zap"
)

// OutputMode 输出方式
type OutputMode string

const (
	// OutputSame 输出与输入相同的格式
	OutputSame OutputMode = "same"

	// OutputMarkdown 输出 Markdown，PDF 会先做结构化转换
	OutputMarkdown OutputMode = "markdown"
)

var (
	// ErrInvalidOutputMode 输出方式不是 same 或 markdown
	ErrInvalidOutputMode = errors.New("invalid output format, must be 'same' or 'markdown'")

	// ErrEmptyText 待翻译的文本为空
	ErrEmptyText = errors.New("text is required")
)

// ParseOutputMode 解析输出方式
func ParseOutputMode(s string) (OutputMode, error) {
	switch mode := OutputMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case OutputSame, OutputMarkdown:
		return mode, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOutputMode, s)
}

// Stage 任务所处的阶段
type Stage string

const (
	StageValidate  Stage = "validate"
	StageExtract   Stage = "extract"
	StageTranslate Stage = "translate"
	StageWrite     Stage = "write"
)

// StageError 标记失败发生的阶段
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf 返回错误所处的阶段，不是 StageError 时返回空
func StageOf(err error) Stage {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}

// Request 一次处理请求
type Request struct {
	InputPath  string
	OutputMode OutputMode
	Translate  bool
	SourceLang string
	TargetLang string
	Model      string
	OutputDir  string

	// Progress 分块翻译进度，可为空
	Progress translation.ProgressFunc
}

// Result 处理结果
type Result struct {
	JobID      string
	OutputPath string
	Chunks     int

	// Degraded PDF 写出失败，改为写出了 .txt
	Degraded bool

	Duration time.Duration
}

// TextRequest 单段文本翻译请求
type TextRequest struct {
	Text       string
	SourceLang string
	TargetLang string
	Model      string
}

// MarkdownConverter PDF 到 Markdown 的转换
type MarkdownConverter interface {
	ToMarkdown(ctx context.Context, path string) (string, error)
}

// Options 流水线依赖
type Options struct {
	Registry   *document.Registry
	Structurer MarkdownConverter
	Completer  providers.Completer

	ChunkSize    int
	Concurrency  int
	ChunkTimeout time.Duration
	TextTimeout  time.Duration

	Logger *zap.Logger
}

// Pipeline 文档处理流水线
type Pipeline struct {
	registry   *document.Registry
	structurer MarkdownConverter
	completer  providers.Completer

	chunkSize    int
	concurrency  int
	chunkTimeout time.Duration
	textTimeout  time.Duration

	logger *zap.Logger
}

// New 创建流水线
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := opts.Registry
	if registry == nil {
		registry = document.NewRegistry(document.RegistryOptions{Logger: logger})
	}
	// 未指定时使用不带 OCR 的结构化转换，PDF 的 markdown 输出始终经过结构化
	structurer := opts.Structurer
	if structurer == nil {
		structurer = markdown.NewStructurer(nil, nil, logger.Named("markdown"))
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = translation.DefaultChunkSize
	}
	return &Pipeline{
		registry:     registry,
		structurer:   structurer,
		completer:    opts.Completer,
		chunkSize:    chunkSize,
		concurrency:  opts.Concurrency,
		chunkTimeout: opts.ChunkTimeout,
		textTimeout:  opts.TextTimeout,
		logger:       logger,
	}
}

// OutputName 输出文件名 processed_<base>.<ext>
func OutputName(inputPath string, mode OutputMode) string {
	base := filepath.Base(inputPath)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if mode == OutputMarkdown {
		ext = string(document.FormatMarkdown)
	}
	return fmt.Sprintf("processed_%s.%s", stem, ext)
}

// Run 执行一次处理任务
// 写出之前的任何失败都不会留下输出文件
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	result := &Result{JobID: uuid.NewString()}
	logger := p.logger.With(zap.String("job_id", result.JobID))

	format, err := p.validate(&req)
	if err != nil {
		logger.Warn("request rejected", zap.String("file", filepath.Base(req.InputPath)), zap.Error(err))
		return nil, &StageError{Stage: StageValidate, Err: err}
	}

	logger.Info("job started",
		zap.String("file", filepath.Base(req.InputPath)),
		zap.String("format", format.String()),
		zap.String("output_mode", string(req.OutputMode)),
		zap.Bool("translate", req.Translate))

	text, err := p.extract(ctx, req, format)
	if err != nil {
		logger.Error("extraction failed", zap.Error(err))
		return nil, &StageError{Stage: StageExtract, Err: err}
	}

	if req.Translate {
		chunks := translation.Chunk(text, p.chunkSize)
		result.Chunks = len(chunks)
		logger.Info("text chunked", zap.Int("chunks", len(chunks)), zap.Int("chunk_size", p.chunkSize))

		orchestrator := translation.NewOrchestrator(p.completer,
			translation.WithConcurrency(p.concurrency),
			translation.WithTimeout(p.chunkTimeout),
			translation.WithLogger(logger),
			translation.WithProgress(req.Progress))

		text, err = orchestrator.Translate(ctx, chunks, req.SourceLang, req.TargetLang, req.Model)
		if err != nil {
			logger.Error("translation failed", zap.Error(err))
			return nil, &StageError{Stage: StageTranslate, Err: err}
		}
	}

	outputFormat := format
	if req.OutputMode == OutputMarkdown {
		outputFormat = document.FormatMarkdown
	}
	outputPath := filepath.Join(req.OutputDir, OutputName(req.InputPath, req.OutputMode))

	written, err := p.registry.Write(ctx, document.WriteRequest{
		Text:     text,
		Format:   outputFormat,
		Path:     outputPath,
		Original: req.InputPath,
	})
	if err != nil {
		logger.Error("write failed", zap.String("path", outputPath), zap.Error(err))
		return nil, &StageError{Stage: StageWrite, Err: err}
	}

	result.OutputPath = written
	result.Degraded = written != outputPath
	result.Duration = time.Since(start)
	if result.Degraded {
		logger.Warn("output degraded", zap.String("wanted", outputPath), zap.String("written", written))
	}
	logger.Info("job finished",
		zap.String("output", written),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// TranslateText 不经过文档提取，单次请求翻译一段文本，使用 TextTimeout
func (p *Pipeline) TranslateText(ctx context.Context, req TextRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", &StageError{Stage: StageValidate, Err: ErrEmptyText}
	}
	if p.completer == nil {
		return "", &StageError{Stage: StageValidate, Err: errors.New("no translation provider configured")}
	}

	orchestrator := translation.NewOrchestrator(p.completer,
		translation.WithTextTimeout(p.textTimeout),
		translation.WithLogger(p.logger))

	out, err := orchestrator.TranslateText(ctx, req.Text, req.SourceLang, req.TargetLang, req.Model)
	if err != nil {
		stage := StageTranslate
		if errors.Is(err, translation.ErrMissingTranslationParams) {
			stage = StageValidate
		}
		p.logger.Warn("text translation failed", zap.Int("chars", len(req.Text)), zap.Error(err))
		return "", &StageError{Stage: stage, Err: err}
	}
	return out, nil
}

// validate 在读取文件之前检查请求
func (p *Pipeline) validate(req *Request) (document.Format, error) {
	mode, err := ParseOutputMode(string(req.OutputMode))
	if err != nil {
		return "", err
	}
	req.OutputMode = mode

	format := document.FormatFromPath(req.InputPath)
	if !format.IsInput() {
		return "", document.UnsupportedFormatError(document.Format(strings.TrimPrefix(filepath.Ext(req.InputPath), ".")),
			document.InputFormats())
	}

	if req.Translate {
		if strings.TrimSpace(req.SourceLang) == "" || strings.TrimSpace(req.TargetLang) == "" || strings.TrimSpace(req.Model) == "" {
			return "", translation.ErrMissingTranslationParams
		}
		if p.completer == nil {
			return "", errors.New("no translation provider configured")
		}
	}
	return format, nil
}

func (p *Pipeline) extract(ctx context.Context, req Request, format document.Format) (string, error) {
	if format == document.FormatPDF && req.OutputMode == OutputMarkdown {
		return p.structurer.ToMarkdown(ctx, req.InputPath)
	}
	return p.registry.Extract(ctx, document.Document{Path: req.InputPath, Format: format})
}
