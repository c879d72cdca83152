package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qasvc "github.com/kart-io/resume-qa/internal/qa"
	llmopts "github.com/kart-io/resume-qa/pkg/options/llm"
	qaopts "github.com/kart-io/resume-qa/pkg/options/qa"
)

func TestNewIndexOptions(t *testing.T) {
	opts := NewIndexOptions()

	assert.Equal(t, qaopts.StoreMilvus, opts.QAOptions.Store)
	assert.False(t, opts.QAOptions.IndexOnStart)
	assert.False(t, opts.Force)
}

func TestValidate(t *testing.T) {
	t.Setenv(llmopts.APIKeyEnv, "sk-test")

	opts := NewIndexOptions()
	require.NoError(t, opts.Complete())
	assert.NoError(t, opts.Validate())

	opts.QAOptions.Store = qaopts.StoreMemory
	err := opts.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), qasvc.ErrEphemeralStore.Error())
}

func TestForceFlag(t *testing.T) {
	opts := NewIndexOptions()
	fss := opts.Flags()

	fs := fss.FlagSets["misc"]
	require.NotNil(t, fs)
	require.NoError(t, fs.Parse([]string{"--force"}))
	assert.True(t, opts.Force)
}

func TestConfig(t *testing.T) {
	opts := NewIndexOptions()
	cfg, err := opts.Config()
	require.NoError(t, err)

	assert.Nil(t, cfg.HTTPOptions)
	assert.Nil(t, cfg.ChatOptions)
	assert.Same(t, opts.MilvusOptions, cfg.MilvusOptions)
}
