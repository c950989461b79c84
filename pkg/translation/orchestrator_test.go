package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers/ollama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeOllama 返回 "T(<chunk>)"，failOn 指定第几次请求返回 500
func newFakeOllama(t *testing.T, failOn int) (*httptest.Server, *int32) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if int(n) == failOn {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"model exploded"}`))
			return
		}
		var req ollama.GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		chunk := req.Prompt[strings.LastIndex(req.Prompt, "\n\n")+2:]
		json.NewEncoder(w).Encode(map[string]string{"response": "  T(" + chunk + ")\n"})
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestTranslateSequential(t *testing.T) {
	server, calls := newFakeOllama(t, 0)
	client := ollama.New(ollama.Config{BaseURL: server.URL}, nil)

	var progress []int
	o := NewOrchestrator(client, WithProgress(func(done, total int) {
		assert.Equal(t, 3, total)
		progress = append(progress, done)
	}))

	out, err := o.Translate(context.Background(), []string{"one", "two", "three"}, "en", "zh", "qwen2.5")
	require.NoError(t, err)
	assert.Equal(t, "T(one)\n\nT(two)\n\nT(three)", out)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	assert.Equal(t, []int{1, 2, 3}, progress)
}

func TestTranslateAbortsOnFailure(t *testing.T) {
	server, calls := newFakeOllama(t, 3)
	client := ollama.New(ollama.Config{BaseURL: server.URL}, nil)
	o := NewOrchestrator(client)

	out, err := o.Translate(context.Background(), []string{"c1", "c2", "c3", "c4", "c5"}, "en", "fr", "m")
	require.Error(t, err)
	assert.Empty(t, out, "partial results are discarded")
	assert.True(t, errors.Is(err, ErrTranslationService))

	var svcErr *TranslationServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, 3, svcErr.Chunk)
	assert.Equal(t, 5, svcErr.Total)
	assert.Equal(t, http.StatusInternalServerError, svcErr.StatusCode)
	assert.Contains(t, svcErr.Body, "model exploded")
	assert.Equal(t, int32(3), atomic.LoadInt32(calls), "no chunk after the failure is sent")
}

func TestTranslateMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"done":true}`))
	}))
	defer server.Close()

	o := NewOrchestrator(ollama.New(ollama.Config{BaseURL: server.URL}, nil))
	_, err := o.Translate(context.Background(), []string{"x"}, "en", "de", "m")
	assert.ErrorIs(t, err, ErrTranslationService)
	assert.ErrorIs(t, err, providers.ErrMalformedResponse)
}

func TestTranslateConcurrentKeepsOrder(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	client := providers.CompleterFunc(func(ctx context.Context, model, prompt string) (string, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		chunk := prompt[strings.LastIndex(prompt, "\n\n")+2:]
		// 越靠前的分块越慢，打乱完成顺序
		var n int
		fmt.Sscanf(chunk, "chunk-%d", &n)
		time.Sleep(time.Duration(20-n) * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return "R" + chunk, nil
	})

	chunks := make([]string, 12)
	want := make([]string, 12)
	for i := range chunks {
		chunks[i] = fmt.Sprintf("chunk-%d", i)
		want[i] = "R" + chunks[i]
	}

	o := NewOrchestrator(client, WithConcurrency(3))
	out, err := o.Translate(context.Background(), chunks, "en", "ja", "m")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(want, "\n\n"), out)
	assert.LessOrEqual(t, peak, 3)
}

func TestTranslatePerCallTimeout(t *testing.T) {
	client := providers.CompleterFunc(func(ctx context.Context, model, prompt string) (string, error) {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
		<-ctx.Done()
		return "", ctx.Err()
	})

	o := NewOrchestrator(client, WithTimeout(time.Second))
	_, err := o.Translate(context.Background(), []string{"slow"}, "en", "zh", "m")
	assert.ErrorIs(t, err, ErrTranslationService)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTranslateMissingParams(t *testing.T) {
	var called bool
	client := providers.CompleterFunc(func(ctx context.Context, model, prompt string) (string, error) {
		called = true
		return "", nil
	})
	o := NewOrchestrator(client)

	for _, args := range [][3]string{{"", "zh", "m"}, {"en", " ", "m"}, {"en", "zh", ""}} {
		_, err := o.Translate(context.Background(), []string{"x"}, args[0], args[1], args[2])
		assert.ErrorIs(t, err, ErrMissingTranslationParams)
	}
	assert.False(t, called)
}

func TestTranslateNoChunks(t *testing.T) {
	o := NewOrchestrator(providers.CompleterFunc(func(ctx context.Context, model, prompt string) (string, error) {
		t.Fatal("no request expected")
		return "", nil
	}))
	out, err := o.Translate(context.Background(), nil, "en", "zh", "m")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTranslateText(t *testing.T) {
	var gotPrompt string
	client := providers.CompleterFunc(func(ctx context.Context, model, prompt string) (string, error) {
		gotPrompt = prompt
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(DefaultTextTimeout), deadline, time.Second)
		return "\n 你好 \n", nil
	})

	out, err := NewOrchestrator(client).TranslateText(context.Background(), "Hello", "en", "zh", "m")
	require.NoError(t, err)
	assert.Equal(t, "你好", out)
	assert.Contains(t, gotPrompt, "从English翻译成Chinese")
	assert.True(t, strings.HasSuffix(gotPrompt, "原文：\nHello"))
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("en", "zh", "Hello\n\nWorld")
	assert.Equal(t, "Please translate the following text from English to Chinese. Maintain any special formatting or technical terms:\n\nHello\n\nWorld", got)

	got = BuildPrompt("English", "Simplified Chinese", "x")
	assert.Contains(t, got, "from English to Simplified Chinese.")
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "English", LanguageName("en"))
	assert.Equal(t, "French", LanguageName("fr"))
	assert.Equal(t, "German", LanguageName(" de "))
	assert.Equal(t, "Japanese", LanguageName("Japanese"))
}
