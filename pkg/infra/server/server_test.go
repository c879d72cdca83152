package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/resume-qa/pkg/infra/server/transport/http"
	httpopts "github.com/kart-io/resume-qa/pkg/options/server/http"
)

type fakeServer struct {
	name     string
	startErr error
	started  bool
	stopped  bool
}

func (f *fakeServer) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeServer) Stop(context.Context) error {
	f.stopped = true
	return nil
}

func (f *fakeServer) Name() string { return f.name }

func newHTTPServer() *http.Server {
	opts := httpopts.NewOptions()
	opts.Addr = "127.0.0.1:0"
	s := http.NewServer(opts)
	s.Engine().GET("/healthz", func(c *gin.Context) { c.JSON(nethttp.StatusOK, gin.H{"status": "ok"}) })
	return s
}

func TestManager_ServesAndStops(t *testing.T) {
	aux := &fakeServer{name: "aux"}
	m := NewManager(newHTTPServer(), WithServer(aux))

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, aux.started)
	assert.Error(t, m.Start(context.Background()), "second start must fail")

	resp, err := nethttp.Get(fmt.Sprintf("http://%s/healthz", m.HTTPServer().Addr()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, err = nethttp.Get(fmt.Sprintf("http://%s/missing", m.HTTPServer().Addr()))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)

	require.NoError(t, m.Stop(context.Background()))
	assert.True(t, aux.stopped)
	require.NoError(t, m.Stop(context.Background()), "stop is idempotent")
}

func TestManager_StartFailureRollsBack(t *testing.T) {
	first := &fakeServer{name: "first"}
	broken := &fakeServer{name: "broken", startErr: errors.New("bind failed")}
	m := NewManager(newHTTPServer(), WithServer(first), WithServer(broken))

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.True(t, first.stopped)
}

func TestManager_RunStopsOnContextCancel(t *testing.T) {
	m := NewManager(newHTTPServer(), WithShutdownTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestManager_BindError(t *testing.T) {
	first := NewManager(newHTTPServer())
	require.NoError(t, first.Start(context.Background()))
	defer func() { _ = first.Stop(context.Background()) }()

	opts := httpopts.NewOptions()
	opts.Addr = first.HTTPServer().Addr()
	second := NewManager(http.NewServer(opts))
	assert.Error(t, second.Start(context.Background()))
}
