package http

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv(PortEnv, "")

	o := NewOptions()
	require.NoError(t, o.Complete())
	assert.Equal(t, ":3000", o.Addr)
	assert.Empty(t, o.Validate())
}

func TestPortEnvOverride(t *testing.T) {
	t.Setenv(PortEnv, "8080")

	o := NewOptions()
	o.Addr = "127.0.0.1:3000"
	require.NoError(t, o.Complete())
	assert.Equal(t, "127.0.0.1:8080", o.Addr)
}

func TestValidate(t *testing.T) {
	o := NewOptions()
	o.Addr = "no-port"
	o.ReadTimeout = 0
	assert.Len(t, o.Validate(), 2)

	o = NewOptions()
	o.Addr = ":99999"
	assert.Len(t, o.Validate(), 1)
}

func TestAddFlags(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{"--http.addr=:9000"}))
	assert.Equal(t, ":9000", o.Addr)
}
