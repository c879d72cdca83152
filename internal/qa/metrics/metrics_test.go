package metrics

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/resume-qa/internal/qa/biz"
)

func TestRecordAsk(t *testing.T) {
	m := New()
	m.RecordAsk(nil)
	m.RecordAsk(&biz.NodeError{Node: biz.NodeRewrite, Err: fmt.Errorf("%w: 429", biz.ErrGeneration)})
	m.RecordAsk(fmt.Errorf("%w: blank", biz.ErrValidation))
	m.RecordAsk(errors.New("boom"))

	assert.EqualValues(t, 4, m.Asks())
	assert.EqualValues(t, 1, m.Failures("GenerationFailure"))
	assert.EqualValues(t, 1, m.Failures("ValidationFailure"))
	assert.EqualValues(t, 1, m.Failures("Unknown"))
	assert.EqualValues(t, 0, m.Failures("RetrievalFailure"))
}

func TestObserveNode_Concurrent(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if i%5 == 0 {
				err = errors.New("failed")
			}
			m.ObserveNode(biz.NodeAnswer, time.Millisecond, err)
		}()
	}
	wg.Wait()

	total, failed := m.NodeCalls(biz.NodeAnswer)
	assert.EqualValues(t, 50, total)
	assert.EqualValues(t, 10, failed)

	m.ObserveNode(biz.NodePassthrough, time.Millisecond, nil)
	total, _ = m.NodeCalls(biz.NodePassthrough)
	assert.Zero(t, total)
}

func TestExport(t *testing.T) {
	m := New()
	m.RecordAsk(nil)
	m.ObserveNode(biz.NodeRetrieve, 1500*time.Millisecond, nil)
	m.RecordIndexing(&biz.IndexStats{Indexed: 2, Chunks: 7}, nil)

	out := m.Export("resume_qa")
	assert.Contains(t, out, "# TYPE resume_qa_asks_total counter\n")
	assert.Contains(t, out, "resume_qa_asks_total 1\n")
	assert.Contains(t, out, `resume_qa_node_executions_total{node="retrieve"} 1`)
	assert.Contains(t, out, `resume_qa_node_duration_seconds_total{node="retrieve"} 1.500000`)
	assert.Contains(t, out, `resume_qa_ask_failures_total{kind="GenerationFailure"} 0`)
	assert.Contains(t, out, "resume_qa_chunks_indexed_total 7\n")
	assert.Contains(t, out, "resume_qa_documents_indexed_total 2\n")
}
