package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	client := New(Config{}, nil)
	assert.Equal(t, "http://localhost:11434", client.baseURL)
	assert.Zero(t, client.httpClient.Timeout, "deadlines come from the call context")

	client = New(Config{BaseURL: "http://custom-ollama:8080/"}, nil)
	assert.Equal(t, "http://custom-ollama:8080", client.baseURL)
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen2.5", req["model"])
		assert.Equal(t, "translate me", req["prompt"])
		assert.Equal(t, false, req["stream"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"model":    "qwen2.5",
			"response": "  翻译结果 \n",
			"done":     true,
		})
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL}, nil)
	text, err := client.Generate(context.Background(), "qwen2.5", "translate me")
	require.NoError(t, err)
	assert.Equal(t, "  翻译结果 \n", text, "trimming is the caller's job")
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantErr    error
	}{
		{name: "ServerError", status: http.StatusInternalServerError, body: `{"error":"model crashed"}`, wantStatus: 500},
		{name: "NotFound", status: http.StatusNotFound, body: `{"error":"model not found"}`, wantStatus: 404},
		{name: "MissingResponse", status: http.StatusOK, body: `{"model":"m","done":true}`, wantStatus: 200, wantErr: providers.ErrMalformedResponse},
		{name: "InvalidJSON", status: http.StatusOK, body: `not json`, wantStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(Config{BaseURL: server.URL}, nil).Generate(context.Background(), "m", "p")
			require.Error(t, err)

			var svcErr *providers.ServiceError
			require.True(t, errors.As(err, &svcErr))
			assert.Equal(t, tt.wantStatus, svcErr.StatusCode)
			assert.Equal(t, tt.body, svcErr.Body)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestGenerateHonorsContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(Config{BaseURL: server.URL}, nil).Generate(ctx, "m", "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/version", r.URL.Path)
		w.Write([]byte(`{"version":"0.5.7"}`))
	}))
	defer server.Close()

	version, err := New(Config{BaseURL: server.URL}, nil).Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.5.7", version)

	server.Close()
	_, err = New(Config{BaseURL: server.URL}, nil).Version(context.Background())
	assert.Error(t, err)
}

func TestParseModelList(t *testing.T) {
	output := `NAME                 ID              SIZE      MODIFIED
qwen2.5:7b           845dbda0ea48    4.7 GB    2 days ago

llama3.1:latest      42182419e950    4.7 GB    3 weeks ago
`
	assert.Equal(t, []string{"qwen2.5:7b", "llama3.1:latest"}, ParseModelList(output))
	assert.Empty(t, ParseModelList(""))
	assert.Empty(t, ParseModelList("NAME ID SIZE MODIFIED\n"))
}

func TestModelListerFailures(t *testing.T) {
	lister := NewModelLister("/nonexistent/ollama-binary", nil)
	models := lister.List(context.Background())
	assert.NotNil(t, models)
	assert.Empty(t, models)
}

func TestModelListerScript(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	dir := t.TempDir()

	ok := filepath.Join(dir, "fake-ollama")
	require.NoError(t, os.WriteFile(ok, []byte("#!/bin/sh\necho 'NAME ID SIZE MODIFIED'\necho 'mistral:7b abc 4GB now'\n"), 0o755))
	assert.Equal(t, []string{"mistral:7b"}, NewModelLister(ok, nil).List(context.Background()))

	failing := filepath.Join(dir, "failing-ollama")
	require.NoError(t, os.WriteFile(failing, []byte("#!/bin/sh\necho 'NAME'\necho 'm1 x'\nexit 1\n"), 0o755))
	assert.Empty(t, NewModelLister(failing, nil).List(context.Background()))
}
