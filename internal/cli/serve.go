package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nerdneilsfield/go-doc-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-doc-translator/internal/server"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers/ollama"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			p, err := pipeline.NewFromConfig(a.cfg, a.log)
			if err != nil {
				return err
			}

			s := server.New(server.Config{
				Addr:      addr,
				UploadDir: a.cfg.Storage.UploadDir,
				OutputDir: a.cfg.Storage.OutputDir,
			},
				p,
				ollama.NewModelLister(a.cfg.Ollama.Command, a.log),
				ollama.New(ollama.Config{BaseURL: a.cfg.Ollama.BaseURL}, a.log),
				a.log.Named("server"))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "监听地址 (默认使用配置中的 server.addr)")
	return cmd
}
