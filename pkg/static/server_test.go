package static

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerServeAndShutdown(t *testing.T) {
	records, objects := newTestStores(t)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "ping.txt"), []byte("pong"), 0o644))

	// Port 0 lets the OS pick a free port; Addr reports the bound one.
	srv := NewServer(Config{Host: "127.0.0.1", Port: 0, Root: root}, records, objects)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	var resp *http.Response
	deadline := time.Now().Add(5 * time.Second)
	for {
		r, err := http.Get("http://" + srv.Addr() + "/static/ping.txt")
		if err == nil {
			resp = r
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never became reachable: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServerStopIdempotent(t *testing.T) {
	records, objects := newTestStores(t)
	srv := NewServer(Config{Root: t.TempDir()}, records, objects)

	require.NoError(t, srv.Stop(context.Background()))
	require.NoError(t, srv.Stop(context.Background()))
}

func TestConfigDefaults(t *testing.T) {
	var config Config
	config.applyDefaults()

	assert.Equal(t, "0.0.0.0", config.Host)
	assert.Equal(t, "./static", config.Root)
	assert.Equal(t, 10*time.Second, config.ReadTimeout)
	assert.Equal(t, 10*time.Second, config.WriteTimeout)
	assert.Equal(t, 60*time.Second, config.IdleTimeout)
	assert.Equal(t, 5*time.Second, config.ShutdownTimeout)
}
