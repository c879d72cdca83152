package biz

import "strings"

// ContextCombiner 把检索到的片段合并为上下文文本。
type ContextCombiner interface {
	Combine(passages []string) (string, error)
}

// CombinerFunc 把函数适配为 ContextCombiner。
type CombinerFunc func(passages []string) (string, error)

// Combine 实现 ContextCombiner。
func (f CombinerFunc) Combine(passages []string) (string, error) {
	return f(passages)
}

// JoinCombiner 用 Separator 连接片段，空输入返回空串。
type JoinCombiner struct {
	// Separator 为空时使用 "\n\n"。
	Separator string
}

// Combine 实现 ContextCombiner。
func (c JoinCombiner) Combine(passages []string) (string, error) {
	sep := c.Separator
	if sep == "" {
		sep = "\n\n"
	}
	return strings.Join(passages, sep), nil
}
