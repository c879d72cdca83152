package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/resume-qa/pkg/utils/json"
)

func TestHistory_UnmarshalObjects(t *testing.T) {
	var h History
	err := json.Unmarshal([]byte(`[{"role":"user","text":"What did he study?"},{"role":"assistant","text":"Computer Science"}]`), &h)
	require.NoError(t, err)
	assert.Equal(t, History{
		{Role: RoleUser, Text: "What did he study?"},
		{Role: RoleAssistant, Text: "Computer Science"},
	}, h)
}

func TestHistory_UnmarshalLegacyStrings(t *testing.T) {
	var h History
	require.NoError(t, json.Unmarshal([]byte(`["hi","hello","where?"]`), &h))
	require.Len(t, h, 3)
	assert.Equal(t, RoleUser, h[0].Role)
	assert.Equal(t, RoleAssistant, h[1].Role)
	assert.Equal(t, RoleUser, h[2].Role)
	assert.Equal(t, "where?", h[2].Text)
}

func TestHistory_UnmarshalNullAndEmpty(t *testing.T) {
	var h History
	require.NoError(t, json.Unmarshal([]byte(`null`), &h))
	assert.Empty(t, h)

	require.NoError(t, json.Unmarshal([]byte(`[]`), &h))
	assert.Empty(t, h)
}

func TestHistory_UnmarshalErrors(t *testing.T) {
	var h History
	assert.Error(t, json.Unmarshal([]byte(`"not a list"`), &h))
	assert.ErrorContains(t, json.Unmarshal([]byte(`[{"role":"system","text":"x"}]`), &h), "unknown role")
}

func TestDefaultHistoryFormatter(t *testing.T) {
	f := DefaultHistoryFormatter{}
	assert.Equal(t, "", f.Format(nil))
	assert.Equal(t, "Human: What did he study?\nAI: Computer Science", f.Format([]ConversationTurn{
		{Role: RoleUser, Text: "What did he study?"},
		{Role: RoleAssistant, Text: "Computer Science"},
	}))
}

func TestJoinCombiner(t *testing.T) {
	out, err := JoinCombiner{}.Combine(nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)

	out, err = JoinCombiner{}.Combine([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "a\n\nb", out)

	out, err = JoinCombiner{Separator: "\n"}.Combine([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "a\nb", out)
}
