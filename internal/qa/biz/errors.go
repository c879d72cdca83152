package biz

import (
	"errors"
	"fmt"
	"strings"

	qaerrors "github.com/kart-io/resume-qa/pkg/utils/errors"
)

// 问答流程的错误类别，每个失败的错误链中恰好包含其中一个。
var (
	// ErrMissingVariable 模板填充时缺少变量，属于编程错误。
	ErrMissingVariable = errors.New("missing prompt variable")
	// ErrRetrieval 检索或上下文合并失败。
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration 模型调用失败（超时、鉴权、限流、响应异常）。
	ErrGeneration = errors.New("generation failed")
	// ErrValidation 请求不合法，流程不会启动。
	ErrValidation = errors.New("invalid request")
)

// MissingVariableError 列出模板填充时缺少的变量。
type MissingVariableError struct {
	Names []string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing prompt variables: %s", strings.Join(e.Names, ", "))
}

// Is 使 errors.Is(err, ErrMissingVariable) 成立。
func (e *MissingVariableError) Is(target error) bool {
	return target == ErrMissingVariable
}

// NodeError 标记失败发生在哪个节点。
type NodeError struct {
	Node Node
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("pipeline node %s: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

var kinds = []error{ErrValidation, ErrMissingVariable, ErrRetrieval, ErrGeneration}

// Kind 返回错误链中的错误类别，未知错误返回 nil。
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName 返回错误类别的名称，用于日志和指标。
func KindName(err error) string {
	switch Kind(err) {
	case ErrValidation:
		return "ValidationFailure"
	case ErrMissingVariable:
		return "MissingVariable"
	case ErrRetrieval:
		return "RetrievalFailure"
	case ErrGeneration:
		return "GenerationFailure"
	default:
		return "Unknown"
	}
}

// FailedNode 返回失败的节点，错误不是 NodeError 时返回空。
func FailedNode(err error) Node {
	var ne *NodeError
	if errors.As(err, &ne) {
		return ne.Node
	}
	return ""
}

// Classify 把错误映射为对外的错误码。
func Classify(err error) *qaerrors.Errno {
	if err == nil {
		return nil
	}
	var e *qaerrors.Errno
	if errors.As(err, &e) {
		return e
	}

	switch Kind(err) {
	case ErrValidation:
		return qaerrors.ErrQAInvalidRequest.WithCause(err)
	case ErrMissingVariable:
		return qaerrors.ErrQAMissingVariable.WithCause(err)
	case ErrRetrieval:
		return qaerrors.ErrQARetrieval.WithCause(err)
	case ErrGeneration:
		return qaerrors.ErrQAGeneration.WithCause(err)
	default:
		return qaerrors.ErrQAInternal.WithCause(err)
	}
}
