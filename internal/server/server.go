// Package server 提供文档翻译的 HTTP 接口
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nerdneilsfield/go-doc-translator/internal/pipeline"
	"go.uber.org/zap"
)

// Runner 执行文档处理任务和单段文本翻译
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	TranslateText(ctx context.Context, req pipeline.TextRequest) (string, error)
}

// ModelLister 列出可用模型，失败时返回空列表
type ModelLister interface {
	List(ctx context.Context) []string
}

// VersionChecker 查询翻译服务版本，用于健康检查
type VersionChecker interface {
	Version(ctx context.Context) (string, error)
}

// Config 服务配置
type Config struct {
	Addr      string
	UploadDir string
	OutputDir string

	// MaxUploadBytes 上传大小上限，0 表示默认 256MB
	MaxUploadBytes int64
}

const (
	defaultMaxUpload   = 256 << 20
	maxTextBody        = 4 << 20
	healthCheckTimeout = 5 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// Server HTTP 服务
type Server struct {
	cfg     Config
	runner  Runner
	models  ModelLister
	version VersionChecker
	logger  *zap.Logger
	router  *chi.Mux
}

// New 创建服务并注册路由
func New(cfg Config, runner Runner, models ModelLister, version VersionChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}

	s := &Server{
		cfg:     cfg,
		runner:  runner,
		models:  models,
		version: version,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/api/models", s.handleModels)
	r.Post("/translate-file", s.handleTranslateFile)
	r.Post("/translate-text", s.handleTranslateText)
	r.Get("/download/{filename}", s.handleDownload)

	s.router = r
	return s
}

// Handler 返回路由，便于测试
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe 启动服务，ctx 取消后优雅退出
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server started", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// requestLogger 用 zap 记录每个请求
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
