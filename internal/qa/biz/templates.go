package biz

import (
	"fmt"
	"slices"
	"strings"
)

// 模板变量名。
const (
	VarConvHistory = "conv_history"
	VarQuestion    = "question"
	VarContext     = "context"
)

// RewriteTemplateText 把问题改写为独立问题的提示。
const RewriteTemplateText = "Given some conversation history (if any) and a question, convert the question to a standalone question. \n" +
	"conversation history: {conv_history}\n" +
	"question: {question} \n" +
	"standalone question:"

// AnswerTemplateText 基于上下文和对话历史回答问题的提示。
const AnswerTemplateText = "You are a highly knowledgeable and enthusiastic support bot, dedicated to assisting with questions about the Resume of a student named 'Pranam' based on the provided context and the conversation history. \n" +
	"    Your responses should be precise, friendly, and professional, reflecting a genuine willingness to help. \n" +
	"    - When the answer is in the context, provide a clear and concise response. \n" +
	"    - If the answer is not in the context, search through the conversation history for relevant information. \n" +
	"    - If the answer is still not found, respond with, 'I'm sorry, I don't know the answer to that.\n" +
	"    - Kindly direct the questioner in a friendly, funny and a creative way to email prxshetty@gmail.com for further assistance. \n" +
	"    Remember, do not fabricate answers. Always communicate as if you were chatting with a friend, maintaining a warm and approachable tone. \n" +
	"context: {context}\n" +
	"conversation history: {conv_history}\n" +
	"question: {question}\n" +
	"answer: "

// NewRewriteTemplate 返回改写模板，override 非空时替换内置文本。
func NewRewriteTemplate(override string) (*PromptTemplate, error) {
	return newTemplate(RewriteTemplateText, override, VarConvHistory, VarQuestion)
}

// NewAnswerTemplate 返回回答模板，override 非空时替换内置文本。
func NewAnswerTemplate(override string) (*PromptTemplate, error) {
	return newTemplate(AnswerTemplateText, override, VarContext, VarConvHistory, VarQuestion)
}

// newTemplate 解析模板，并要求占位符集合与 want 完全一致。
func newTemplate(text, override string, want ...string) (*PromptTemplate, error) {
	if strings.TrimSpace(override) != "" {
		text = override
	}
	t, err := ParseTemplate(text)
	if err != nil {
		return nil, err
	}

	got := t.Placeholders()
	slices.Sort(got)
	want = slices.Clone(want)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		return nil, fmt.Errorf("prompt template must declare placeholders %v, got %v", want, got)
	}
	return t, nil
}
