package qasvc

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/resume-qa/pkg/infra/tracing"
	"github.com/kart-io/resume-qa/pkg/llm"
	llmopts "github.com/kart-io/resume-qa/pkg/options/llm"
	logopts "github.com/kart-io/resume-qa/pkg/options/logger"
	milvusopts "github.com/kart-io/resume-qa/pkg/options/milvus"
	qaopts "github.com/kart-io/resume-qa/pkg/options/qa"
	redisopts "github.com/kart-io/resume-qa/pkg/options/redis"
	httpopts "github.com/kart-io/resume-qa/pkg/options/server/http"
	"github.com/kart-io/resume-qa/pkg/utils/json"
)

const testDim = 8

// scriptedProvider 按提示内容区分改写与回答两次调用。
type scriptedProvider struct {
	mu      sync.Mutex
	prompts []string
}

func (p *scriptedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, _ := p.EmbedSingle(ctx, text)
		out[i] = v
	}
	return out, nil
}

func (p *scriptedProvider) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, testDim)
	v[0] = 1
	for _, w := range strings.Fields(strings.ToLower(text)) {
		v[1+len(w)%(testDim-1)]++
	}
	return v, nil
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.Message) (*llm.GenerateResponse, error) {
	return p.Generate(ctx, messages[len(messages)-1].Content, "")
}

func (p *scriptedProvider) Generate(_ context.Context, prompt, _ string) (*llm.GenerateResponse, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()

	if strings.HasSuffix(prompt, "standalone question:") {
		return &llm.GenerateResponse{Content: "What degree does Pranam hold?"}, nil
	}
	if strings.Contains(prompt, "Computer Science") {
		return &llm.GenerateResponse{Content: "Pranam holds a B.S. in Computer Science."}, nil
	}
	return &llm.GenerateResponse{Content: "I'm sorry, I don't know the answer to that."}, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.prompts...)
}

var (
	testProvider = &scriptedProvider{}
	registerOnce sync.Once
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	registerOnce.Do(func() {
		llm.RegisterProvider("scripted", func(map[string]any) (llm.Provider, error) {
			return testProvider, nil
		})
	})

	dir := t.TempDir()
	resume := "# Education\n\nB.S. in Computer Science, University of Texas at Arlington.\n\n# Experience\n\nBackend engineer working on Go services.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resume.md"), []byte(resume), 0o600))

	embed := llmopts.NewEmbeddingOptions()
	embed.Provider = "scripted"
	chat := llmopts.NewChatOptions()
	chat.Provider = "scripted"

	qa := qaopts.NewOptions()
	qa.EmbeddingDim = testDim
	qa.DocumentsDir = dir
	qa.IndexWorkers = 2

	return &Config{
		HTTPOptions:      httpopts.NewOptions(),
		LogOptions:       logopts.NewOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		EmbeddingOptions: embed,
		ChatOptions:      chat,
		RedisOptions:     redisopts.NewOptions(),
		QAOptions:        qa,
		TracingOptions:   tracing.NewOptions(),
	}
}

func TestNewServer_AnswersFromIndexedResume(t *testing.T) {
	cfg := newTestConfig(t)

	s, err := cfg.NewServer(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.res.close(context.Background()) })

	engine := s.srv.HTTPServer().Engine()

	body := `{"question":"What degree does he hold?","conv_history":["Who is Pranam?","A student."]}`
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Answer string `json:"answer"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Pranam holds a B.S. in Computer Science.", resp.Answer)

	prompts := testProvider.Prompts()
	require.GreaterOrEqual(t, len(prompts), 2)
	rewrite, answer := prompts[len(prompts)-2], prompts[len(prompts)-1]
	assert.Contains(t, rewrite, "conversation history: Human: Who is Pranam?\nAI: A student.")
	assert.Contains(t, answer, "question: What degree does he hold?\n")
	assert.Contains(t, answer, "University of Texas at Arlington")

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "resume_qa_asks_total 1")
	assert.Contains(t, w.Body.String(), "resume_qa_chunks_indexed_total")
}

func TestNewServer_RejectsBadTemplateOverride(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.QAOptions.AnswerTemplate = "context: {context}\nquestion: {question}"

	_, err := cfg.NewServer(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer template")
}

func TestNewServer_FailsWhenIndexingFails(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.QAOptions.DocumentsDir = filepath.Join(t.TempDir(), "missing")

	_, err := cfg.NewServer(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to index")
}

func TestRunIndex_RejectsMemoryStore(t *testing.T) {
	cfg := newTestConfig(t)

	_, err := cfg.RunIndex(context.Background(), false)
	assert.ErrorIs(t, err, ErrEphemeralStore)
}

func TestResources_CloseInReverseOrder(t *testing.T) {
	var buf bytes.Buffer
	errBoom := errors.New("boom")

	res := &resources{}
	res.onClose(func(context.Context) error { buf.WriteString("a"); return nil })
	res.onClose(func(context.Context) error { buf.WriteString("b"); return errBoom })
	res.onClose(func(context.Context) error { buf.WriteString("c"); return nil })

	err := res.close(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "cba", buf.String())

	require.NoError(t, res.close(context.Background()))
	assert.Equal(t, "cba", buf.String())
}

func TestOpenRegistry_IgnoredForMemoryStore(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.RedisOptions.Enabled = true

	res := &resources{}
	assert.Nil(t, cfg.openRegistry(context.Background(), res))
	assert.Empty(t, res.closers)
}
