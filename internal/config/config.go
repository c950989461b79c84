package config

import (
	"time"

	"github.com/nerdneilsfield/go-doc-translator/internal/document"
	"github.com/nerdneilsfield/go-doc-translator/internal/ocr"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers/ollama"
	"github.com/nerdneilsfield/go-doc-translator/pkg/translation"
)

// Config 应用配置
type Config struct {
	Ollama      OllamaConfig      `mapstructure:"ollama"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
	Translation TranslationConfig `mapstructure:"translation"`
	OCR         OCRConfig         `mapstructure:"ocr"`
	PDF         PDFConfig         `mapstructure:"pdf"`
	Markdown    MarkdownConfig    `mapstructure:"markdown"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
}

// OllamaConfig Ollama 服务配置
type OllamaConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Command string `mapstructure:"command"` // 列出模型时执行的命令
}

// OpenAIConfig OpenAI 兼容接口配置
type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// TranslationConfig 翻译配置
type TranslationConfig struct {
	Provider       string        `mapstructure:"provider"`        // ollama 或 openai
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // 单段文本翻译超时
	ChunkTimeout   time.Duration `mapstructure:"chunk_timeout"`   // 分块翻译超时
	ChunkSize      int           `mapstructure:"chunk_size"`
	Concurrency    int           `mapstructure:"concurrency"`
}

// OCRConfig OCR 配置
type OCRConfig struct {
	TesseractPath string  `mapstructure:"tesseract_path"`
	DPI           float64 `mapstructure:"dpi"`
	Concurrency   int     `mapstructure:"concurrency"`
}

// PDFConfig PDF 写出配置
type PDFConfig struct {
	FontPaths []string `mapstructure:"font_paths"`
}

// MarkdownConfig Markdown 写出配置
type MarkdownConfig struct {
	Normalize bool `mapstructure:"normalize"`
}

// StorageConfig 上传和输出目录
type StorageConfig struct {
	UploadDir string `mapstructure:"upload_dir"`
	OutputDir string `mapstructure:"output_dir"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// 提供商名称
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	return &Config{
		Ollama: OllamaConfig{
			BaseURL: ollama.DefaultBaseURL,
			Command: ollama.DefaultCommand,
		},
		Translation: TranslationConfig{
			Provider:       ProviderOllama,
			RequestTimeout: translation.DefaultTextTimeout,
			ChunkTimeout:   translation.DefaultChunkTimeout,
			ChunkSize:      translation.DefaultChunkSize,
			Concurrency:    1,
		},
		OCR: OCRConfig{
			TesseractPath: ocr.DefaultTesseractPath,
			DPI:           ocr.DefaultDPI,
			Concurrency:   1,
		},
		PDF: PDFConfig{
			FontPaths: append([]string(nil), document.DefaultFontPaths...),
		},
		Storage: StorageConfig{
			UploadDir: "uploads",
			OutputDir: "outputs",
		},
		Server: ServerConfig{
			Addr: ":8000",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
