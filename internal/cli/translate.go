package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/nerdneilsfield/go-doc-translator/internal/config"
	"github.com/nerdneilsfield/go-doc-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers/ollama"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type translateOptions struct {
	outputFormat string
	translate    bool
	sourceLang   string
	targetLang   string
	model        string
	outputDir    string
	quiet        bool
}

func newTranslateCommand(a *app) *cobra.Command {
	opts := &translateOptions{}

	cmd := &cobra.Command{
		Use:   "translate [flags] input_file",
		Short: "提取文档文本，可选翻译，并写出结果",
		Example: `  doctranslator translate paper.pdf --output-format markdown
  doctranslator translate book.epub --translate --source en --target zh --model qwen2.5:7b`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runTranslate(ctx, cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.outputFormat, "output-format", "f", string(pipeline.OutputSame), "输出方式: same 或 markdown")
	flags.BoolVarP(&opts.translate, "translate", "t", false, "翻译提取的文本")
	flags.StringVarP(&opts.sourceLang, "source", "s", "", "源语言，例如 en 或 English")
	flags.StringVarP(&opts.targetLang, "target", "l", "", "目标语言，例如 zh 或 Chinese")
	flags.StringVarP(&opts.model, "model", "m", "", "翻译使用的模型")
	flags.StringVarP(&opts.outputDir, "output-dir", "o", "", "输出目录 (默认使用配置中的 storage.output_dir)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "不显示进度条")
	return cmd
}

func (a *app) runTranslate(ctx context.Context, cmd *cobra.Command, input string, opts *translateOptions) error {
	mode, err := pipeline.ParseOutputMode(opts.outputFormat)
	if err != nil {
		return err
	}
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("输入文件不可用: %w", err)
	}

	outputDir := opts.outputDir
	if outputDir == "" {
		outputDir = a.cfg.Storage.OutputDir
	}

	if opts.translate && opts.model != "" {
		a.checkModel(ctx, cmd, opts.model)
	}

	p, err := pipeline.NewFromConfig(a.cfg, a.log)
	if err != nil {
		return err
	}

	req := pipeline.Request{
		InputPath:  input,
		OutputMode: mode,
		Translate:  opts.translate,
		SourceLang: opts.sourceLang,
		TargetLang: opts.targetLang,
		Model:      opts.model,
		OutputDir:  outputDir,
	}

	var (
		mu  sync.Mutex
		bar *pterm.ProgressbarPrinter
	)
	if opts.translate && !opts.quiet {
		req.Progress = func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			if bar == nil {
				bar, _ = pterm.DefaultProgressbar.
					WithTotal(total).
					WithTitle("翻译进度").
					WithWriter(cmd.ErrOrStderr()).
					Start()
			}
			if bar != nil {
				bar.Increment()
			}
		}
	}

	res, err := p.Run(ctx, req)
	if bar != nil {
		_, _ = bar.Stop()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Degraded {
		color.New(color.FgYellow).Fprintf(out, "PDF 生成失败，已改为写出纯文本: %s\n", res.OutputPath)
		return nil
	}
	color.New(color.FgGreen, color.Bold).Fprintf(out, "处理完成: %s\n", res.OutputPath)
	if res.Chunks > 0 {
		fmt.Fprintf(out, "翻译分块: %d, 耗时: %s\n", res.Chunks, res.Duration.Round(time.Millisecond))
	}
	return nil
}

// checkModel 模型不在本地列表中时给出相近的名称，列表不可用时跳过
func (a *app) checkModel(ctx context.Context, cmd *cobra.Command, model string) {
	if a.cfg.Translation.Provider != config.ProviderOllama {
		return
	}
	models := ollama.NewModelLister(a.cfg.Ollama.Command, a.log).List(ctx)
	if len(models) == 0 || slices.Contains(models, model) {
		return
	}

	a.log.Warn("model not found in local list", zap.String("model", model))
	warn := color.New(color.FgYellow)
	warn.Fprintf(cmd.ErrOrStderr(), "模型 %q 不在本地模型列表中\n", model)
	if suggestions := suggestModels(model, models); len(suggestions) > 0 {
		warn.Fprintf(cmd.ErrOrStderr(), "你是不是想用: %v\n", suggestions)
	}
}
