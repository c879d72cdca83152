package biz

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/kart-io/resume-qa/pkg/utils/json"
)

// Role 表示对话角色。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid 判断角色是否合法。
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ConversationTurn 表示一轮对话。
type ConversationTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// History 是按时间排序的对话历史。
//
// JSON 中既接受 {role, text} 对象列表，也接受纯字符串列表；
// 后者偶数下标为用户、奇数下标为助手。
type History []ConversationTurn

// UnmarshalJSON 实现 json.Unmarshaler。
func (h *History) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("conv_history must be a list: %w", err)
	}

	turns := make(History, 0, len(items))
	for i, raw := range items {
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '"' {
			var text string
			if err := json.Unmarshal(raw, &text); err != nil {
				return fmt.Errorf("conv_history[%d]: %w", i, err)
			}
			role := RoleUser
			if i%2 == 1 {
				role = RoleAssistant
			}
			turns = append(turns, ConversationTurn{Role: role, Text: text})
			continue
		}

		var turn ConversationTurn
		if err := json.Unmarshal(raw, &turn); err != nil {
			return fmt.Errorf("conv_history[%d]: %w", i, err)
		}
		if !turn.Role.Valid() {
			return fmt.Errorf("conv_history[%d]: unknown role %q", i, turn.Role)
		}
		turns = append(turns, turn)
	}

	*h = turns
	return nil
}

// HistoryFormatter 把对话历史格式化为可插入提示的文本。
type HistoryFormatter interface {
	Format(turns []ConversationTurn) string
}

// HistoryFormatterFunc 把函数适配为 HistoryFormatter。
type HistoryFormatterFunc func(turns []ConversationTurn) string

// Format 实现 HistoryFormatter。
func (f HistoryFormatterFunc) Format(turns []ConversationTurn) string {
	return f(turns)
}

// DefaultHistoryFormatter 每轮一行，用户为 "Human: "，助手为 "AI: "。空历史返回空串。
type DefaultHistoryFormatter struct{}

// Format 实现 HistoryFormatter。
func (DefaultHistoryFormatter) Format(turns []ConversationTurn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		prefix := "Human: "
		if t.Role == RoleAssistant {
			prefix = "AI: "
		}
		lines = append(lines, prefix+t.Text)
	}
	return strings.Join(lines, "\n")
}
