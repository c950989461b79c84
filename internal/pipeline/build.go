package pipeline

import (
	"fmt"

	"github.com/nerdneilsfield/go-doc-translator/internal/config"
	"github.com/nerdneilsfield/go-doc-translator/internal/document"
	"github.com/nerdneilsfield/go-doc-translator/internal/markdown"
	"github.com/nerdneilsfield/go-doc-translator/internal/ocr"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers/ollama"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers/openai"
	"go.uber.org/zap"
)

// NewProviderRegistry 注册所有内置的翻译服务
func NewProviderRegistry(cfg *config.Config, logger *zap.Logger) (*providers.Registry, error) {
	registry := providers.NewRegistry()

	if err := registry.Register(config.ProviderOllama,
		ollama.New(ollama.Config{BaseURL: cfg.Ollama.BaseURL}, logger)); err != nil {
		return nil, err
	}
	if err := registry.Register(config.ProviderOpenAI,
		openai.New(openai.Config{BaseURL: cfg.OpenAI.BaseURL, APIKey: cfg.OpenAI.APIKey}, logger)); err != nil {
		return nil, err
	}
	return registry, nil
}

// NewFromConfig 按配置组装流水线
func NewFromConfig(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	providerRegistry, err := NewProviderRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}
	completer, err := providerRegistry.Get(cfg.Translation.Provider)
	if err != nil {
		return nil, fmt.Errorf("select translation provider: %w", err)
	}

	recognizer := ocr.NewRecognizer(ocr.Config{
		TesseractPath: cfg.OCR.TesseractPath,
		DPI:           cfg.OCR.DPI,
		Concurrency:   cfg.OCR.Concurrency,
	}, ocr.WithLogger(logger.Named("ocr")))

	pdfReader := document.NewPDFReader()
	registry := document.NewRegistry(document.RegistryOptions{
		PDF:               pdfReader,
		OCR:               recognizer,
		FontPaths:         cfg.PDF.FontPaths,
		NormalizeMarkdown: cfg.Markdown.Normalize,
		Logger:            logger.Named("document"),
	})

	return New(Options{
		Registry:     registry,
		Structurer:   markdown.NewStructurer(pdfReader, recognizer, logger.Named("markdown")),
		Completer:    completer,
		ChunkSize:    cfg.Translation.ChunkSize,
		Concurrency:  cfg.Translation.Concurrency,
		ChunkTimeout: cfg.Translation.ChunkTimeout,
		TextTimeout:  cfg.Translation.RequestTimeout,
		Logger:       logger.Named("pipeline"),
	}), nil
}
