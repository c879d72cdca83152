package biz_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kart-io/resume-qa/internal/qa/biz"
)

type stubModel struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (m *stubModel) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.reply(prompt)
}

func (m *stubModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func replyWith(s string) func(string) (string, error) {
	return func(string) (string, error) { return s, nil }
}

func echo(prompt string) (string, error) {
	return prompt, nil
}

type stubRetriever struct {
	mu       sync.Mutex
	queries  []string
	passages []string
	err      error
}

func (r *stubRetriever) Retrieve(_ context.Context, query string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	return r.passages, r.err
}

func (r *stubRetriever) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries)
}

type fixture struct {
	rewrite   *stubModel
	answer    *stubModel
	retriever *stubRetriever
	executor  *biz.PipelineExecutor
}

// newFixture 使用简化模板，回答模型回显收到的提示。
func newFixture(t *testing.T, opts ...biz.PipelineOption) *fixture {
	t.Helper()
	f := &fixture{
		rewrite:   &stubModel{reply: replyWith("REWRITTEN")},
		answer:    &stubModel{reply: echo},
		retriever: &stubRetriever{passages: []string{"passage"}},
	}
	rewriteTmpl := biz.MustParseTemplate("H={conv_history}|Q={question}")
	answerTmpl := biz.MustParseTemplate("C={context}|H={conv_history}|Q={question}")
	f.executor = biz.NewPipelineExecutor(
		biz.NewGenerationStage("rewrite", rewriteTmpl, f.rewrite),
		biz.NewGenerationStage("answer", answerTmpl, f.answer),
		f.retriever,
		opts...,
	)
	return f
}

// newDeployedFixture 使用内置模板。
func newDeployedFixture(t *testing.T, rewrite, answer *stubModel, retriever *stubRetriever) *biz.PipelineExecutor {
	t.Helper()
	rewriteTmpl, err := biz.NewRewriteTemplate("")
	require.NoError(t, err)
	answerTmpl, err := biz.NewAnswerTemplate("")
	require.NoError(t, err)
	return biz.NewPipelineExecutor(
		biz.NewGenerationStage("rewrite", rewriteTmpl, rewrite),
		biz.NewGenerationStage("answer", answerTmpl, answer),
		retriever,
	)
}

func TestPipeline_AnswerUsesOriginalRequest(t *testing.T) {
	f := newFixture(t)
	history := []biz.ConversationTurn{
		{Role: biz.RoleUser, Text: "What did he study?"},
		{Role: biz.RoleAssistant, Text: "Computer Science"},
	}

	out, err := f.executor.Execute(context.Background(), biz.Request{Question: "And where?", History: history})
	require.NoError(t, err)

	assert.Equal(t, "C=passage|H=Human: What did he study?\nAI: Computer Science|Q=And where?", out)
	assert.Equal(t, []string{"REWRITTEN"}, f.retriever.queries)
	assert.NotContains(t, out, "REWRITTEN")
}

func TestPipeline_EmptyRetrievalStillAnswers(t *testing.T) {
	f := newFixture(t)
	f.retriever.passages = nil

	out, err := f.executor.Execute(context.Background(), biz.Request{Question: "Hobbies?"})
	require.NoError(t, err)
	assert.Equal(t, "C=|H=|Q=Hobbies?", out)
	assert.Equal(t, 1, f.answer.calls())
}

func TestPipeline_RewriteFailureStopsPipeline(t *testing.T) {
	f := newFixture(t)
	f.rewrite.reply = func(string) (string, error) { return "", errors.New("rate limited") }

	_, err := f.executor.Execute(context.Background(), biz.Request{Question: "What is Pranam's degree?"})
	require.Error(t, err)

	assert.True(t, errors.Is(err, biz.ErrGeneration))
	assert.False(t, errors.Is(err, biz.ErrRetrieval))
	assert.Equal(t, biz.NodeRewrite, biz.FailedNode(err))
	assert.Equal(t, "GenerationFailure", biz.KindName(err))
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, 0, f.retriever.calls())
	assert.Equal(t, 0, f.answer.calls())
}

func TestPipeline_RetrievalFailureStopsPipeline(t *testing.T) {
	f := newFixture(t)
	f.retriever.err = errors.New("milvus unavailable")

	_, err := f.executor.Execute(context.Background(), biz.Request{Question: "What is Pranam's degree?"})
	require.Error(t, err)

	assert.True(t, errors.Is(err, biz.ErrRetrieval))
	assert.Equal(t, biz.NodeRetrieve, biz.FailedNode(err))
	assert.Equal(t, 1, f.rewrite.calls())
	assert.Equal(t, 0, f.answer.calls())
}

func TestPipeline_CombinerFailureIsRetrievalFailure(t *testing.T) {
	f := newFixture(t, biz.WithContextCombiner(biz.CombinerFunc(func([]string) (string, error) {
		return "", errors.New("too large")
	})))

	_, err := f.executor.Execute(context.Background(), biz.Request{Question: "q"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, biz.ErrRetrieval))
	assert.Equal(t, 0, f.answer.calls())
}

func TestPipeline_AnswerFailure(t *testing.T) {
	f := newFixture(t)
	f.answer.reply = func(string) (string, error) { return "", context.DeadlineExceeded }

	_, err := f.executor.Execute(context.Background(), biz.Request{Question: "q"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, biz.ErrGeneration))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, biz.NodeAnswer, biz.FailedNode(err))
}

func TestPipeline_EmptyQuestionIsRejected(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t"} {
		f := newFixture(t)
		_, err := f.executor.Execute(context.Background(), biz.Request{Question: q})
		require.Error(t, err)
		assert.True(t, errors.Is(err, biz.ErrValidation))
		assert.Equal(t, 0, f.rewrite.calls())
		assert.Equal(t, 0, f.retriever.calls())
		assert.Equal(t, 0, f.answer.calls())
	}
}

func TestPipeline_MissingVariable(t *testing.T) {
	model := &stubModel{reply: echo}
	stage := biz.NewGenerationStage("answer", biz.MustParseTemplate("{context} {extra}"), model)

	_, err := stage.Run(context.Background(), biz.Variables{"context": "c"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, biz.ErrMissingVariable))
	assert.False(t, errors.Is(err, biz.ErrGeneration))
	assert.Equal(t, 0, model.calls())
}

func TestPipeline_NodeObserver(t *testing.T) {
	var mu sync.Mutex
	var nodes []biz.Node
	observer := biz.NodeObserverFunc(func(node biz.Node, _ time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		nodes = append(nodes, node)
	})

	f := newFixture(t, biz.WithNodeObserver(observer))
	_, err := f.executor.Execute(context.Background(), biz.Request{Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, []biz.Node{biz.NodeRewrite, biz.NodeRetrieve, biz.NodeAnswer}, nodes)
}

func TestPipeline_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	f := newFixture(t)
	f.retriever.err = errors.New("boom")
	_, err := f.executor.Execute(context.Background(), biz.Request{Question: "q"})
	require.Error(t, err)

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"qa.node.rewrite", "qa.node.retrieve", "qa.pipeline"}, names)
}

func TestPipeline_ConcurrentRequestsAreIsolated(t *testing.T) {
	f := newFixture(t)
	f.rewrite.reply = func(prompt string) (string, error) {
		return "standalone " + prompt[strings.Index(prompt, "Q="):], nil
	}

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q := fmt.Sprintf("question %d", i)
			out, err := f.executor.Execute(context.Background(), biz.Request{Question: q})
			assert.NoError(t, err)
			assert.Equal(t, "C=passage|H=|Q="+q, out)
		}()
	}
	wg.Wait()
	assert.Equal(t, 32, f.retriever.calls())
}

func TestScenario_DegreeQuestion(t *testing.T) {
	const question = "What is Pranam's degree?"
	rewrite := &stubModel{reply: replyWith(question)}
	answer := &stubModel{reply: replyWith("Pranam holds a B.S. in Computer Science.")}
	retriever := &stubRetriever{passages: []string{"Pranam holds a B.S. in Computer Science"}}

	executor := newDeployedFixture(t, rewrite, answer, retriever)
	out, err := executor.Execute(context.Background(), biz.Request{Question: question})
	require.NoError(t, err)
	assert.Equal(t, "Pranam holds a B.S. in Computer Science.", out)

	assert.Equal(t, []string{question}, retriever.queries)
	require.Equal(t, 1, answer.calls())
	assert.Contains(t, answer.prompts[0], "context: Pranam holds a B.S. in Computer Science\n")
	assert.Contains(t, answer.prompts[0], "conversation history: \n")
	assert.Contains(t, answer.prompts[0], "question: What is Pranam's degree?\n")
}

func TestScenario_FollowUpIsRewrittenBeforeRetrieval(t *testing.T) {
	rewrite := &stubModel{reply: replyWith("Where did Pranam study Computer Science?")}
	answer := &stubModel{reply: replyWith("At the university listed in the resume.")}
	retriever := &stubRetriever{passages: []string{"Education: B.S. Computer Science"}}

	executor := newDeployedFixture(t, rewrite, answer, retriever)
	_, err := executor.Execute(context.Background(), biz.Request{
		Question: "And where?",
		History: []biz.ConversationTurn{
			{Role: biz.RoleUser, Text: "What did he study?"},
			{Role: biz.RoleAssistant, Text: "Computer Science"},
		},
	})
	require.NoError(t, err)

	require.Equal(t, 1, rewrite.calls())
	assert.Contains(t, rewrite.prompts[0], "conversation history: Human: What did he study?\nAI: Computer Science\n")
	assert.Contains(t, rewrite.prompts[0], "question: And where? \n")

	assert.Equal(t, []string{"Where did Pranam study Computer Science?"}, retriever.queries)

	require.Equal(t, 1, answer.calls())
	assert.Contains(t, answer.prompts[0], "question: And where?\n")
	assert.NotContains(t, answer.prompts[0], "Where did Pranam study")
}
