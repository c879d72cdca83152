// Package textutil 提供简历问答的文本处理工具函数：向量相似度、内容指纹、
// Markdown 章节提取与按 token 切块。
package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// CosineSimilarity 计算两个向量的余弦相似度。
// 返回值范围为 [-1, 1]；长度不一致或零向量返回 0。
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Fingerprint 计算内容的 SHA-256 指纹（十六进制）。
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Section 表示 Markdown 中的一个章节。
type Section struct {
	Title   string
	Content string
}

var headerRegex = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)

// ExtractSections 按标题切分 Markdown，保持原文顺序。
// 第一个标题之前的内容归入 defaultTitle；空章节被丢弃。
func ExtractSections(content, defaultTitle string) []Section {
	parts := headerRegex.Split(content, -1)
	headers := headerRegex.FindAllStringSubmatch(content, -1)

	var sections []Section
	for i, part := range parts {
		title := defaultTitle
		if i > 0 {
			title = strings.TrimSpace(headers[i-1][1])
		}
		part = strings.TrimSpace(part)
		if part != "" {
			sections = append(sections, Section{Title: title, Content: part})
		}
	}
	return sections
}

// TokenSplitter 按 token 数把文本切成有重叠的块。
type TokenSplitter struct {
	codec   tokenizer.Codec
	size    int
	overlap int
}

// NewTokenSplitter 使用 model 对应的编码创建切块器；未知模型回退到 cl100k_base。
func NewTokenSplitter(model string, size, overlap int) (*TokenSplitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}

	codec, err := tokenizer.ForModel(tokenizer.Model(model))
	if err != nil {
		codec, err = tokenizer.Get(tokenizer.Cl100kBase)
		if err != nil {
			return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
		}
	}

	return &TokenSplitter{codec: codec, size: size, overlap: overlap}, nil
}

// Count 返回文本的 token 数。
func (s *TokenSplitter) Count(text string) (int, error) {
	ids, _, err := s.codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Split 切分文本。不超过块大小的文本原样返回为单个块；空白文本返回 nil。
func (s *TokenSplitter) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	ids, _, err := s.codec.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	if len(ids) <= s.size {
		return []string{text}, nil
	}

	var chunks []string
	step := s.size - s.overlap
	for start := 0; start < len(ids); start += step {
		end := min(start+s.size, len(ids))

		chunk, err := s.codec.Decode(ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		// token 边界可能落在多字节字符中间。
		chunk = strings.TrimSpace(strings.ToValidUTF8(chunk, ""))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(ids) {
			break
		}
	}
	return chunks, nil
}
