// Package cli 命令行入口
package cli

import (
	"fmt"

	"github.com/nerdneilsfield/go-doc-translator/internal/config"
	"github.com/nerdneilsfield/go-doc-translator/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app 所有子命令共享的状态，在 PersistentPreRunE 中初始化
type app struct {
	cfgFile   string
	debugMode bool

	cfg *config.Config
	log *zap.Logger

	version   string
	commit    string
	buildDate string
}

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	a := &app{version: version, commit: commit, buildDate: buildDate}

	rootCmd := &cobra.Command{
		Use:   "doctranslator",
		Short: "文档提取与翻译工具",
		Long: `doctranslator 从 PDF、DOCX、EPUB、HTML 和 Markdown 中提取文本，
可选地通过本地 Ollama 或 OpenAI 兼容接口翻译，并写回原格式或 Markdown。

没有文本层的 PDF 会使用 tesseract 进行 OCR。`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "配置文件路径 (默认查找 $HOME/.doctranslator.yaml 和 ./.doctranslator.yaml)")
	rootCmd.PersistentFlags().BoolVar(&a.debugMode, "debug", false, "启用调试日志")

	rootCmd.AddCommand(
		newTranslateCommand(a),
		newModelsCommand(a),
		newServeCommand(a),
		newVersionCommand(a),
	)
	return rootCmd
}

// init 加载 .env、配置和日志
func (a *app) init() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(a.cfgFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	a.cfg = cfg

	log, err := logger.NewLogger(logger.Options{
		Level: cfg.Log.Level,
		Debug: a.debugMode,
		File:  cfg.Log.File,
	})
	if err != nil {
		return err
	}
	a.log = log
	a.log.Debug("configuration loaded",
		zap.String("provider", cfg.Translation.Provider),
		zap.String("ollama", cfg.Ollama.BaseURL),
		zap.Int("chunk_size", cfg.Translation.ChunkSize))
	return nil
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "doctranslator %s (commit %s, built %s)\n", a.version, a.commit, a.buildDate)
		},
	}
}
