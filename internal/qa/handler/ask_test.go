package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/resume-qa/internal/qa/biz"
	"github.com/kart-io/resume-qa/internal/qa/metrics"
	"github.com/kart-io/resume-qa/pkg/utils/json"
)

type stubPipeline struct {
	mu       sync.Mutex
	requests []biz.Request
	answer   string
	err      error
}

func (p *stubPipeline) Execute(_ context.Context, req biz.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	return p.answer, p.err
}

func newTestRouter(p Pipeline, m *metrics.QAMetrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/ask", NewAskHandler(p, m).Ask)
	r.GET("/healthz", Health)
	return r
}

func post(t *testing.T, r http.Handler, body string, headers ...string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func TestAsk_Success(t *testing.T) {
	p := &stubPipeline{answer: "Pranam holds a B.S. in Computer Science."}
	m := metrics.New()
	r := newTestRouter(p, m)

	w, body := post(t, r, `{"question":"And where?","conv_history":[{"role":"user","text":"What did he study?"},{"role":"assistant","text":"Computer Science"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"answer": "Pranam holds a B.S. in Computer Science."}, body)

	require.Len(t, p.requests, 1)
	assert.Equal(t, "And where?", p.requests[0].Question)
	assert.Equal(t, []biz.ConversationTurn{
		{Role: biz.RoleUser, Text: "What did he study?"},
		{Role: biz.RoleAssistant, Text: "Computer Science"},
	}, p.requests[0].History)
	assert.EqualValues(t, 1, m.Asks())
}

func TestAsk_LegacyHistory(t *testing.T) {
	p := &stubPipeline{answer: "ok"}
	r := newTestRouter(p, nil)

	w, _ := post(t, r, `{"question":"And where?","conv_history":["What did he study?","Computer Science"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, p.requests, 1)
	assert.Equal(t, biz.RoleAssistant, p.requests[0].History[1].Role)
}

func TestAsk_NoHistory(t *testing.T) {
	p := &stubPipeline{answer: "ok"}
	r := newTestRouter(p, nil)

	w, _ := post(t, r, `{"question":"What is Pranam's degree?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, p.requests[0].History)
}

func TestAsk_ValidationFailure(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		headers []string
		wantMsg string
	}{
		{"missing question", `{"conv_history":[]}`, nil, "question is a required field"},
		{"blank question", `{"question":"   "}`, nil, "question must not be blank"},
		{"blank question zh", `{"question":"   "}`, []string{"Accept-Language", "zh-CN"}, "question不能为空白"},
		{"malformed json", `{"question":`, nil, "invalid request body"},
		{"empty body", ``, nil, "invalid request body"},
		{"unknown role", `{"question":"q","conv_history":[{"role":"system","text":"x"}]}`, nil, "unknown role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubPipeline{answer: "unused"}
			m := metrics.New()
			r := newTestRouter(p, m)

			w, body := post(t, r, tt.body, tt.headers...)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, body["error"], tt.wantMsg)
			assert.Empty(t, p.requests)
			assert.EqualValues(t, 1, m.Failures("ValidationFailure"))
		})
	}
}

func TestAsk_PipelineFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"generation", &biz.NodeError{Node: biz.NodeRewrite, Err: fmt.Errorf("%w: invalid api key", biz.ErrGeneration)}, "GenerationFailure"},
		{"retrieval", &biz.NodeError{Node: biz.NodeRetrieve, Err: fmt.Errorf("%w: milvus down", biz.ErrRetrieval)}, "RetrievalFailure"},
		{"missing variable", &biz.NodeError{Node: biz.NodeAnswer, Err: &biz.MissingVariableError{Names: []string{"context"}}}, "MissingVariable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			r := newTestRouter(&stubPipeline{err: tt.err}, m)

			w, body := post(t, r, `{"question":"What is Pranam's degree?","conv_history":[]}`)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, map[string]string{"error": "Internal Server Error"}, body)
			assert.EqualValues(t, 1, m.Failures(tt.kind))
		})
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&stubPipeline{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
