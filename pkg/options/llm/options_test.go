package llm

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "sk-env")

	o := NewChatOptions()
	require.NoError(t, o.Complete())
	assert.Equal(t, "sk-env", o.APIKey)
	assert.Empty(t, o.Validate())

	o = NewChatOptions()
	o.APIKey = "sk-flag"
	require.NoError(t, o.Complete())
	assert.Equal(t, "sk-flag", o.APIKey)
}

func TestValidateMissingKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "")

	o := NewEmbeddingOptions()
	require.NoError(t, o.Complete())
	errs := o.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "api-key is required")
}

func TestFlagsWithPrefix(t *testing.T) {
	o := NewChatOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs, "chat")

	require.NoError(t, fs.Parse([]string{"--chat.model=gpt-4o", "--chat.timeout=10s"}))
	assert.Equal(t, "gpt-4o", o.Model)
	assert.Equal(t, 10*time.Second, o.Timeout)

	m := o.ToConfigMap()
	assert.Equal(t, "gpt-4o", m["chat_model"])
	assert.Equal(t, 10*time.Second, m["timeout"])
}
