package biz

import (
	"fmt"
	"regexp"
	"strings"
)

// Variables 是模板变量名到取值的映射。
type Variables map[string]string

var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type segment struct {
	text string
	// name 非空表示占位符。
	name string
}

// PromptTemplate 是带命名占位符（如 {question}）的静态提示模板。
// "{{" 和 "}}" 分别表示字面量 "{" 和 "}"。
type PromptTemplate struct {
	text         string
	segments     []segment
	placeholders []string
}

// ParseTemplate 解析模板文本。
func ParseTemplate(text string) (*PromptTemplate, error) {
	t := &PromptTemplate{text: text}
	seen := make(map[string]bool)

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case c == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("prompt template: unclosed placeholder at offset %d", i)
			}
			name := text[i+1 : i+1+end]
			if !identRegex.MatchString(name) {
				return nil, fmt.Errorf("prompt template: invalid placeholder %q at offset %d", name, i)
			}
			flush()
			t.segments = append(t.segments, segment{name: name})
			if !seen[name] {
				seen[name] = true
				t.placeholders = append(t.placeholders, name)
			}
			i += end + 2
		case c == '}':
			return nil, fmt.Errorf("prompt template: unmatched '}' at offset %d", i)
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()

	return t, nil
}

// MustParseTemplate 解析模板，失败时 panic，仅用于内置模板。
func MustParseTemplate(text string) *PromptTemplate {
	t, err := ParseTemplate(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Text 返回模板原文。
func (t *PromptTemplate) Text() string {
	return t.text
}

// Placeholders 按首次出现顺序返回占位符名称。
func (t *PromptTemplate) Placeholders() []string {
	out := make([]string, len(t.placeholders))
	copy(out, t.placeholders)
	return out
}

// Fill 用 vars 填充模板。缺少任一占位符时返回 *MissingVariableError，
// 多余的变量被忽略。变量值不会被再次展开。
func (t *PromptTemplate) Fill(vars Variables) (string, error) {
	var missing []string
	for _, name := range t.placeholders {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", &MissingVariableError{Names: missing}
	}

	var b strings.Builder
	for _, s := range t.segments {
		if s.name != "" {
			b.WriteString(vars[s.name])
			continue
		}
		b.WriteString(s.text)
	}
	return b.String(), nil
}
