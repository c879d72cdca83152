package biz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	qaerrors "github.com/kart-io/resume-qa/pkg/utils/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *qaerrors.Errno
		kind string
	}{
		{"validation", fmt.Errorf("%w: question is required", ErrValidation), qaerrors.ErrQAInvalidRequest, "ValidationFailure"},
		{"missing variable", &NodeError{Node: NodeAnswer, Err: &MissingVariableError{Names: []string{"context"}}}, qaerrors.ErrQAMissingVariable, "MissingVariable"},
		{"retrieval", &NodeError{Node: NodeRetrieve, Err: fmt.Errorf("%w: down", ErrRetrieval)}, qaerrors.ErrQARetrieval, "RetrievalFailure"},
		{"generation", &NodeError{Node: NodeRewrite, Err: fmt.Errorf("%w: 429", ErrGeneration)}, qaerrors.ErrQAGeneration, "GenerationFailure"},
		{"unknown", errors.New("boom"), qaerrors.ErrQAInternal, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.True(t, errors.Is(got, tt.want))
			assert.True(t, errors.Is(got, tt.err))
			assert.Equal(t, tt.kind, KindName(tt.err))
		})
	}
	assert.Nil(t, Classify(nil))
}

func TestClassify_KeepsErrno(t *testing.T) {
	err := qaerrors.ErrQAInvalidRequest.WithMessage("question must not be blank")
	assert.Same(t, err, Classify(fmt.Errorf("wrapped: %w", err)))
}

func TestNodeError(t *testing.T) {
	err := &NodeError{Node: NodeRetrieve, Err: fmt.Errorf("%w: timeout", ErrRetrieval)}
	assert.Equal(t, "pipeline node retrieve: retrieval failed: timeout", err.Error())
	assert.Equal(t, NodeRetrieve, FailedNode(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, Node(""), FailedNode(errors.New("plain")))
}
