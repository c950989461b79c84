package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerdneilsfield/go-doc-translator/internal/document"
	"github.com/nerdneilsfield/go-doc-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModels []string

func (m stubModels) List(ctx context.Context) []string { return m }

type stubVersion struct {
	version string
	err     error
}

func (v stubVersion) Version(ctx context.Context) (string, error) { return v.version, v.err }

type testEnv struct {
	server    *httptest.Server
	uploadDir string
	outputDir string
}

func newTestEnv(t *testing.T, completer providers.Completer, version stubVersion) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		uploadDir: filepath.Join(root, "uploads"),
		outputDir: filepath.Join(root, "outputs"),
	}
	p := pipeline.New(pipeline.Options{Completer: completer})
	s := New(Config{UploadDir: env.uploadDir, OutputDir: env.outputDir}, p,
		stubModels{"llama3:8b", "qwen2.5:7b"}, version, nil)
	env.server = httptest.NewServer(s.Handler())
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) upload(t *testing.T, filename, content string, fields map[string]string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		fw.Write([]byte(content))
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(e.server.URL+"/translate-file", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

var echoCompleter = providers.CompleterFunc(func(ctx context.Context, model, prompt string) (string, error) {
	return "译文", nil
})

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil, stubVersion{version: "0.5.7"})
	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, HealthResponse{Status: "healthy", OllamaVersion: "0.5.7"}, decode[HealthResponse](t, resp))
}

func TestHealthUnavailable(t *testing.T) {
	env := newTestEnv(t, nil, stubVersion{err: errors.New("connection refused")})
	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Ollama service is not available", decode[errorResponse](t, resp).Detail)
}

func TestModels(t *testing.T) {
	env := newTestEnv(t, nil, stubVersion{})
	resp, err := http.Get(env.server.URL + "/api/models")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, []string{"llama3:8b", "qwen2.5:7b"}, decode[ModelsResponse](t, resp).Models)
}

func TestTranslateFileAndDownload(t *testing.T) {
	env := newTestEnv(t, echoCompleter, stubVersion{})

	resp := env.upload(t, "guide.md", "Hello world", map[string]string{
		"output_format":  "same",
		"need_translate": "True",
		"source_lang":    "en",
		"target_lang":    "zh",
		"model":          "qwen2.5:7b",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[TranslateResponse](t, resp)
	assert.Equal(t, "done", out.Message)
	assert.Equal(t, "processed_guide.md", out.Filename)
	assert.NotEmpty(t, out.JobID)

	// 上传的原文保存在上传目录
	saved, err := os.ReadFile(filepath.Join(env.uploadDir, "guide.md"))
	require.NoError(t, err)
	assert.Equal(t, "Hello world", string(saved))

	dl, err := http.Get(env.server.URL + "/download/" + out.Filename)
	require.NoError(t, err)
	defer dl.Body.Close()
	assert.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, "application/octet-stream", dl.Header.Get("Content-Type"))
	assert.Contains(t, dl.Header.Get("Content-Disposition"), "processed_guide.md")
	data, _ := io.ReadAll(dl.Body)
	assert.Equal(t, "译文", string(data))
}

func TestTranslateFileWithoutTranslation(t *testing.T) {
	env := newTestEnv(t, nil, stubVersion{})
	resp := env.upload(t, "page.html", "<h1>Hi</h1>", map[string]string{
		"output_format":  "markdown",
		"need_translate": "false",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "processed_page.md", decode[TranslateResponse](t, resp).Filename)

	data, err := os.ReadFile(filepath.Join(env.outputDir, "processed_page.md"))
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hi</h1>", string(data))
}

func TestTranslateFileStatusCodes(t *testing.T) {
	failing := providers.CompleterFunc(func(ctx context.Context, model, prompt string) (string, error) {
		return "", &providers.ServiceError{Provider: "ollama", StatusCode: 500, Body: "oom"}
	})
	env := newTestEnv(t, failing, stubVersion{})

	cases := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
		status   int
	}{
		{"bad output format", "a.md", "x", map[string]string{"output_format": "pdf", "need_translate": "false"}, http.StatusUnprocessableEntity},
		{"unsupported extension", "a.txt", "x", map[string]string{"output_format": "same", "need_translate": "false"}, http.StatusUnprocessableEntity},
		{"missing file", "", "", map[string]string{"output_format": "same", "need_translate": "false"}, http.StatusUnprocessableEntity},
		{"missing translation params", "a.md", "x", map[string]string{"output_format": "same", "need_translate": "true", "model": "m"}, http.StatusUnprocessableEntity},
		{"broken docx", "a.docx", "not a zip", map[string]string{"output_format": "same", "need_translate": "false"}, http.StatusBadRequest},
		{"translation failure", "b.md", "x", map[string]string{"output_format": "same", "need_translate": "true", "source_lang": "en", "target_lang": "zh", "model": "m"}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.upload(t, tc.filename, tc.content, tc.fields)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.NotEmpty(t, decode[errorResponse](t, resp).Detail)
		})
	}

	entries, _ := os.ReadDir(env.outputDir)
	assert.Empty(t, entries, "failed jobs leave no output")
}

func (e *testEnv) postText(t *testing.T, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(e.server.URL+"/translate-text", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestTranslateText(t *testing.T) {
	var gotModel string
	completer := providers.CompleterFunc(func(ctx context.Context, model, prompt string) (string, error) {
		gotModel = model
		return "你好\n", nil
	})
	env := newTestEnv(t, completer, stubVersion{})

	resp := env.postText(t, `{"text":"Hello","source_lang":"en","target_lang":"zh","model":"qwen2.5:7b"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, TextResponse{TranslatedText: "你好"}, decode[TextResponse](t, resp))
	assert.Equal(t, "qwen2.5:7b", gotModel)
}

func TestTranslateTextStatusCodes(t *testing.T) {
	failing := providers.CompleterFunc(func(ctx context.Context, model, prompt string) (string, error) {
		return "", &providers.ServiceError{Provider: "ollama", StatusCode: 500, Body: "oom"}
	})
	env := newTestEnv(t, failing, stubVersion{})

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"text":`, http.StatusBadRequest},
		{"empty text", `{"text":" ","source_lang":"en","target_lang":"zh","model":"m"}`, http.StatusUnprocessableEntity},
		{"missing model", `{"text":"hi","source_lang":"en","target_lang":"zh"}`, http.StatusUnprocessableEntity},
		{"upstream failure", `{"text":"hi","source_lang":"en","target_lang":"zh","model":"m"}`, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.postText(t, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.NotEmpty(t, decode[errorResponse](t, resp).Detail)
		})
	}
}

func TestDownloadRejectsTraversal(t *testing.T) {
	env := newTestEnv(t, nil, stubVersion{})
	require.NoError(t, os.MkdirAll(env.outputDir, 0o755))
	secret := filepath.Join(filepath.Dir(env.outputDir), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("s3cret"), 0o644))

	for _, name := range []string{"missing.md", "..%2Fsecret.txt"} {
		resp, err := http.Get(env.server.URL + "/download/" + name)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, name)
		assert.False(t, strings.Contains(string(body), "s3cret"))
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(document.UnsupportedFormatError("txt", nil)))
	assert.Equal(t, http.StatusBadRequest, statusFor(&pipeline.StageError{Stage: pipeline.StageExtract, Err: errors.New("x")}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(&pipeline.StageError{Stage: pipeline.StageWrite, Err: errors.New("x")}))
}
