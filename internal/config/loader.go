package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 DOCTRANSLATOR_OLLAMA_BASE_URL
const EnvPrefix = "DOCTRANSLATOR"

// configName 默认配置文件名，在家目录和当前目录中查找
const configName = ".doctranslator"

// LoadDotEnv 加载 .env 文件，文件不存在时忽略
// 已存在的环境变量不会被覆盖
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// LoadConfig 从文件加载配置
// configPath 为空时在家目录和当前目录查找 .doctranslator.yaml，找不到则只使用默认值和环境变量
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v, NewDefaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	// 读取环境变量
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 如果找不到配置文件，则使用默认值
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	switch c.Translation.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown translation provider %q (supported: %s, %s)",
			c.Translation.Provider, ProviderOllama, ProviderOpenAI)
	}
	if c.Translation.ChunkSize <= 0 {
		return fmt.Errorf("translation.chunk_size must be positive, got %d", c.Translation.ChunkSize)
	}
	if c.Translation.Concurrency <= 0 {
		return fmt.Errorf("translation.concurrency must be positive, got %d", c.Translation.Concurrency)
	}
	if c.Storage.UploadDir == "" || c.Storage.OutputDir == "" {
		return errors.New("storage.upload_dir and storage.output_dir are required")
	}
	return nil
}

// setDefaults 注册所有键，AutomaticEnv 只对已知的键生效
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("ollama.base_url", d.Ollama.BaseURL)
	v.SetDefault("ollama.command", d.Ollama.Command)
	v.SetDefault("openai.base_url", d.OpenAI.BaseURL)
	v.SetDefault("openai.api_key", d.OpenAI.APIKey)
	v.SetDefault("translation.provider", d.Translation.Provider)
	v.SetDefault("translation.request_timeout", d.Translation.RequestTimeout)
	v.SetDefault("translation.chunk_timeout", d.Translation.ChunkTimeout)
	v.SetDefault("translation.chunk_size", d.Translation.ChunkSize)
	v.SetDefault("translation.concurrency", d.Translation.Concurrency)
	v.SetDefault("ocr.tesseract_path", d.OCR.TesseractPath)
	v.SetDefault("ocr.dpi", d.OCR.DPI)
	v.SetDefault("ocr.concurrency", d.OCR.Concurrency)
	v.SetDefault("pdf.font_paths", d.PDF.FontPaths)
	v.SetDefault("markdown.normalize", d.Markdown.Normalize)
	v.SetDefault("storage.upload_dir", d.Storage.UploadDir)
	v.SetDefault("storage.output_dir", d.Storage.OutputDir)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}
