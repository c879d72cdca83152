package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/resume-qa/pkg/llm"
)

// Model 定义文本生成模型。
type Model interface {
	// Generate 根据提示生成文本。
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelFunc 把函数适配为 Model。
type ModelFunc func(ctx context.Context, prompt string) (string, error)

// Generate 实现 Model。
func (f ModelFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ChatModel 把 llm.ChatProvider 适配为 Model，提示作为单条 user 消息发送。
type ChatModel struct {
	provider llm.ChatProvider
}

// NewChatModel 创建 ChatModel。
func NewChatModel(provider llm.ChatProvider) *ChatModel {
	return &ChatModel{provider: provider}
}

// Generate 实现 Model，只返回消息文本。
func (m *ChatModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.provider.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return "", err
	}
	if resp.TokenUsage != nil {
		logger.Debugw("chat completion",
			"provider", m.provider.Name(),
			"prompt_tokens", resp.TokenUsage.PromptTokens,
			"completion_tokens", resp.TokenUsage.CompletionTokens,
		)
	}
	return resp.Content, nil
}

// GenerationStage 填充模板并调用模型。
type GenerationStage struct {
	name     string
	template *PromptTemplate
	model    Model
}

// NewGenerationStage 创建生成阶段。
func NewGenerationStage(name string, tmpl *PromptTemplate, model Model) *GenerationStage {
	return &GenerationStage{
		name:     name,
		template: tmpl,
		model:    model,
	}
}

// Name 返回阶段名称。
func (s *GenerationStage) Name() string {
	return s.name
}

// Template 返回阶段使用的模板。
func (s *GenerationStage) Template() *PromptTemplate {
	return s.template
}

// Run 填充模板并返回模型生成的文本。模型错误包装为 ErrGeneration，不做重试。
func (s *GenerationStage) Run(ctx context.Context, vars Variables) (string, error) {
	prompt, err := s.template.Fill(vars)
	if err != nil {
		return "", fmt.Errorf("%s stage: %w", s.name, err)
	}

	out, err := s.model.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%s stage: %w: %w", s.name, ErrGeneration, err)
	}
	return out, nil
}
