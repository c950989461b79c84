package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nerdneilsfield/go-doc-translator/internal/document"
	"github.com/nerdneilsfield/go-doc-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-doc-translator/pkg/translation"
	"go.uber.org/zap"
)

// TranslateResponse POST /translate-file 的响应
type TranslateResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	JobID    string `json:"job_id"`
	Degraded bool   `json:"degraded,omitempty"`
}

// TextRequest POST /translate-text 的请求体
type TextRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Model      string `json:"model"`
}

// TextResponse POST /translate-text 的响应
type TextResponse struct {
	TranslatedText string `json:"translated_text"`
}

// HealthResponse GET /health 的响应
type HealthResponse struct {
	Status        string `json:"status"`
	OllamaVersion string `json:"ollama_version"`
}

// ModelsResponse GET /api/models 的响应
type ModelsResponse struct {
	Models []string `json:"models"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	version, err := s.version.Version(ctx)
	if err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Ollama service is not available")
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", OllamaVersion: version})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models := s.models.List(r.Context())
	if models == nil {
		models = []string{}
	}
	writeJSON(w, http.StatusOK, ModelsResponse{Models: models})
}

func (s *Server) handleTranslateFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	mode, err := pipeline.ParseOutputMode(r.FormValue("output_format"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "." || filename == string(filepath.Separator) {
		writeError(w, http.StatusUnprocessableEntity, "file name is required")
		return
	}
	if !document.FormatFromPath(filename).IsInput() {
		writeError(w, http.StatusUnprocessableEntity,
			document.UnsupportedFormatError(document.Format(strings.TrimPrefix(filepath.Ext(filename), ".")),
				document.InputFormats()).Error())
		return
	}

	inputPath, err := s.saveUpload(file, filename)
	if err != nil {
		s.logger.Error("failed to save upload", zap.String("file", filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save upload")
		return
	}

	res, err := s.runner.Run(r.Context(), pipeline.Request{
		InputPath:  inputPath,
		OutputMode: mode,
		Translate:  strings.EqualFold(strings.TrimSpace(r.FormValue("need_translate")), "true"),
		SourceLang: r.FormValue("source_lang"),
		TargetLang: r.FormValue("target_lang"),
		Model:      r.FormValue("model"),
		OutputDir:  s.cfg.OutputDir,
	})
	if err != nil {
		s.logger.Error("processing failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("file", filename),
			zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, TranslateResponse{
		Message:  "done",
		Filename: filepath.Base(res.OutputPath),
		JobID:    res.JobID,
		Degraded: res.Degraded,
	})
}

func (s *Server) handleTranslateText(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	out, err := s.runner.TranslateText(r.Context(), pipeline.TextRequest{
		Text:       req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Model:      req.Model,
	})
	if err != nil {
		s.logger.Error("text translation failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, TextResponse{TranslatedText: out})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "filename"))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	path := filepath.Join(s.cfg.OutputDir, name)
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// saveUpload 把上传内容保存到上传目录
func (s *Server) saveUpload(src io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.cfg.UploadDir, filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	return path, dst.Close()
}

// statusFor 把流水线错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidOutputMode),
		errors.Is(err, document.ErrUnsupportedFormat),
		errors.Is(err, translation.ErrMissingTranslationParams),
		errors.Is(err, pipeline.ErrEmptyText):
		return http.StatusUnprocessableEntity
	case pipeline.StageOf(err) == pipeline.StageExtract:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
