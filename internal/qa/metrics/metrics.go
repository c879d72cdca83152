// Package metrics 提供简历问答服务的业务指标收集，以 Prometheus 文本格式导出。
package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kart-io/resume-qa/internal/qa/biz"
)

var (
	observedNodes = []biz.Node{biz.NodeRewrite, biz.NodeRetrieve, biz.NodeAnswer}
	failureKinds  = []string{"ValidationFailure", "MissingVariable", "RetrievalFailure", "GenerationFailure", "Unknown"}
)

type nodeStats struct {
	total    atomic.Uint64
	errors   atomic.Uint64
	duration atomic.Int64 // 纳秒
}

// QAMetrics 问答服务业务指标。计数器在构造后只做原子更新，可并发使用。
type QAMetrics struct {
	asksTotal atomic.Uint64
	failures  map[string]*atomic.Uint64
	nodes     map[biz.Node]*nodeStats

	documentsIndexed atomic.Uint64
	chunksIndexed    atomic.Uint64
	indexErrors      atomic.Uint64

	startTime time.Time
}

var _ biz.NodeObserver = (*QAMetrics)(nil)

// New 创建指标实例。
func New() *QAMetrics {
	m := &QAMetrics{
		failures:  make(map[string]*atomic.Uint64, len(failureKinds)),
		nodes:     make(map[biz.Node]*nodeStats, len(observedNodes)),
		startTime: time.Now(),
	}
	for _, kind := range failureKinds {
		m.failures[kind] = new(atomic.Uint64)
	}
	for _, node := range observedNodes {
		m.nodes[node] = new(nodeStats)
	}
	return m
}

// RecordAsk 记录一次问答请求，err 非 nil 时按错误类别计数。
func (m *QAMetrics) RecordAsk(err error) {
	m.asksTotal.Add(1)
	if err == nil {
		return
	}
	if c, ok := m.failures[biz.KindName(err)]; ok {
		c.Add(1)
	}
}

// ObserveNode 实现 biz.NodeObserver。
func (m *QAMetrics) ObserveNode(node biz.Node, elapsed time.Duration, err error) {
	s, ok := m.nodes[node]
	if !ok {
		return
	}
	s.total.Add(1)
	s.duration.Add(int64(elapsed))
	if err != nil {
		s.errors.Add(1)
	}
}

// RecordIndexing 记录一次索引运行。
func (m *QAMetrics) RecordIndexing(stats *biz.IndexStats, err error) {
	if stats != nil {
		m.documentsIndexed.Add(uint64(stats.Indexed))
		m.chunksIndexed.Add(uint64(stats.Chunks))
	}
	if err != nil {
		m.indexErrors.Add(1)
	}
}

// Asks 返回问答请求总数。
func (m *QAMetrics) Asks() uint64 {
	return m.asksTotal.Load()
}

// Failures 返回某类错误的次数。
func (m *QAMetrics) Failures(kind string) uint64 {
	if c, ok := m.failures[kind]; ok {
		return c.Load()
	}
	return 0
}

// NodeCalls 返回节点执行次数与失败次数。
func (m *QAMetrics) NodeCalls(node biz.Node) (total, errors uint64) {
	s, ok := m.nodes[node]
	if !ok {
		return 0, 0
	}
	return s.total.Load(), s.errors.Load()
}

// Export 导出 Prometheus 格式指标。
func (m *QAMetrics) Export(namespace string) string {
	var sb strings.Builder
	prefix := namespace

	writeHeader := func(name, help, typ string) {
		fmt.Fprintf(&sb, "# HELP %s_%s %s\n", prefix, name, help)
		fmt.Fprintf(&sb, "# TYPE %s_%s %s\n", prefix, name, typ)
	}

	writeHeader("asks_total", "Total number of questions received.", "counter")
	fmt.Fprintf(&sb, "%s_asks_total %d\n\n", prefix, m.asksTotal.Load())

	writeHeader("ask_failures_total", "Failed questions by error kind.", "counter")
	for _, kind := range failureKinds {
		fmt.Fprintf(&sb, "%s_ask_failures_total{kind=%q} %d\n", prefix, kind, m.failures[kind].Load())
	}
	sb.WriteString("\n")

	writeHeader("node_executions_total", "Pipeline node executions.", "counter")
	for _, node := range observedNodes {
		fmt.Fprintf(&sb, "%s_node_executions_total{node=%q} %d\n", prefix, node, m.nodes[node].total.Load())
	}
	sb.WriteString("\n")

	writeHeader("node_errors_total", "Pipeline node failures.", "counter")
	for _, node := range observedNodes {
		fmt.Fprintf(&sb, "%s_node_errors_total{node=%q} %d\n", prefix, node, m.nodes[node].errors.Load())
	}
	sb.WriteString("\n")

	writeHeader("node_duration_seconds_total", "Total time spent in each pipeline node.", "counter")
	for _, node := range observedNodes {
		d := time.Duration(m.nodes[node].duration.Load())
		fmt.Fprintf(&sb, "%s_node_duration_seconds_total{node=%q} %.6f\n", prefix, node, d.Seconds())
	}
	sb.WriteString("\n")

	writeHeader("documents_indexed_total", "Resume documents indexed.", "counter")
	fmt.Fprintf(&sb, "%s_documents_indexed_total %d\n\n", prefix, m.documentsIndexed.Load())

	writeHeader("chunks_indexed_total", "Resume chunks indexed.", "counter")
	fmt.Fprintf(&sb, "%s_chunks_indexed_total %d\n\n", prefix, m.chunksIndexed.Load())

	writeHeader("index_errors_total", "Indexing runs that reported errors.", "counter")
	fmt.Fprintf(&sb, "%s_index_errors_total %d\n\n", prefix, m.indexErrors.Load())

	writeHeader("uptime_seconds", "Seconds since the service started.", "gauge")
	fmt.Fprintf(&sb, "%s_uptime_seconds %.0f\n", prefix, time.Since(m.startTime).Seconds())

	return sb.String()
}
