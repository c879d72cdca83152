package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/resume-qa/pkg/infra/tracing"
)

const tracerName = "github.com/kart-io/resume-qa/internal/qa/biz"

// Node 表示问答流程中的节点。
type Node string

const (
	// NodeRewrite 改写为独立问题。
	NodeRewrite Node = "rewrite"
	// NodePassthrough 保留原始请求。
	NodePassthrough Node = "passthrough"
	// NodeRetrieve 检索并合并上下文。
	NodeRetrieve Node = "retrieve"
	// NodeAnswer 生成最终回答。
	NodeAnswer Node = "answer"
)

// Request 是一次问答请求，执行期间不会被修改。
type Request struct {
	Question string
	History  []ConversationTurn
}

// NodeObserver 在计算节点结束后被调用。
type NodeObserver interface {
	ObserveNode(node Node, elapsed time.Duration, err error)
}

// NodeObserverFunc 把函数适配为 NodeObserver。
type NodeObserverFunc func(node Node, elapsed time.Duration, err error)

// ObserveNode 实现 NodeObserver。
func (f NodeObserverFunc) ObserveNode(node Node, elapsed time.Duration, err error) {
	f(node, elapsed, err)
}

type noopObserver struct{}

func (noopObserver) ObserveNode(Node, time.Duration, error) {}

// rewriteInput 是 Rewrite 节点的输入。
type rewriteInput struct {
	convHistory string
	question    string
}

// original 是 Passthrough 节点的输出。
type original struct {
	question    string
	convHistory string
}

// answerInput 是 Answer 节点的输入。
type answerInput struct {
	context     string
	question    string
	convHistory string
}

// PipelineOption 配置 PipelineExecutor。
type PipelineOption func(*PipelineExecutor)

// WithHistoryFormatter 设置对话历史格式化器。
func WithHistoryFormatter(f HistoryFormatter) PipelineOption {
	return func(e *PipelineExecutor) {
		e.formatter = f
	}
}

// WithContextCombiner 设置上下文合并器。
func WithContextCombiner(c ContextCombiner) PipelineOption {
	return func(e *PipelineExecutor) {
		e.combiner = c
	}
}

// WithNodeObserver 设置节点观察者。
func WithNodeObserver(o NodeObserver) PipelineOption {
	return func(e *PipelineExecutor) {
		e.observer = o
	}
}

// PipelineExecutor 执行固定的四节点问答流程：
// Rewrite 与 Passthrough 无依赖，Retrieve 依赖 Rewrite，Answer 依赖 Retrieve 和 Passthrough。
// 任一节点失败立即中止，不重试，不缓存任何中间结果。
type PipelineExecutor struct {
	rewrite   *GenerationStage
	answer    *GenerationStage
	retriever Retriever
	combiner  ContextCombiner
	formatter HistoryFormatter
	observer  NodeObserver
}

// NewPipelineExecutor 创建流程执行器。
func NewPipelineExecutor(rewrite, answer *GenerationStage, retriever Retriever, opts ...PipelineOption) *PipelineExecutor {
	e := &PipelineExecutor{
		rewrite:   rewrite,
		answer:    answer,
		retriever: retriever,
		combiner:  JoinCombiner{},
		formatter: DefaultHistoryFormatter{},
		observer:  noopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute 执行一次问答并返回回答。
func (e *PipelineExecutor) Execute(ctx context.Context, req Request) (answer string, err error) {
	if strings.TrimSpace(req.Question) == "" {
		return "", fmt.Errorf("%w: question is required", ErrValidation)
	}

	ctx, span := tracing.StartSpan(ctx, tracerName, "qa.pipeline",
		attribute.Int("qa.history_turns", len(req.History)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	convHistory := e.formatter.Format(req.History)
	orig := e.passthrough(req, convHistory)

	standalone, err := e.run(ctx, NodeRewrite, func(ctx context.Context) (string, error) {
		return e.rewriteNode(ctx, rewriteInput{convHistory: convHistory, question: req.Question})
	})
	if err != nil {
		return "", err
	}

	contextText, err := e.run(ctx, NodeRetrieve, func(ctx context.Context) (string, error) {
		return e.retrieveNode(ctx, standalone)
	})
	if err != nil {
		return "", err
	}

	return e.run(ctx, NodeAnswer, func(ctx context.Context) (string, error) {
		return e.answerNode(ctx, answerInput{
			context:     contextText,
			question:    orig.question,
			convHistory: orig.convHistory,
		})
	})
}

// run 执行一个节点，记录 span 和耗时，并把错误包装为 NodeError。
func (e *PipelineExecutor) run(ctx context.Context, node Node, fn func(context.Context) (string, error)) (string, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "qa.node."+string(node),
		attribute.String("qa.node", string(node)),
	)
	start := time.Now()

	out, err := fn(ctx)
	if err != nil {
		err = &NodeError{Node: node, Err: err}
	}

	e.observer.ObserveNode(node, time.Since(start), err)
	tracing.EndSpan(span, err)
	return out, err
}

func (e *PipelineExecutor) rewriteNode(ctx context.Context, in rewriteInput) (string, error) {
	return e.rewrite.Run(ctx, Variables{
		VarConvHistory: in.convHistory,
		VarQuestion:    in.question,
	})
}

func (e *PipelineExecutor) passthrough(req Request, convHistory string) original {
	return original{question: req.Question, convHistory: convHistory}
}

func (e *PipelineExecutor) retrieveNode(ctx context.Context, standalone string) (string, error) {
	passages, err := e.retriever.Retrieve(ctx, standalone)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	combined, err := e.combiner.Combine(passages)
	if err != nil {
		return "", fmt.Errorf("%w: combine: %w", ErrRetrieval, err)
	}
	return combined, nil
}

func (e *PipelineExecutor) answerNode(ctx context.Context, in answerInput) (string, error) {
	return e.answer.Run(ctx, Variables{
		VarContext:     in.context,
		VarConvHistory: in.convHistory,
		VarQuestion:    in.question,
	})
}
