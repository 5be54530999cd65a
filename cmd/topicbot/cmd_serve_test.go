package main

import (
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, minShutdownTimeout, shutdownTimeout(0))
	assert.Equal(t, minShutdownTimeout, shutdownTimeout(5*time.Second))
	assert.Equal(t, 61*time.Second, shutdownTimeout(60*time.Second))
}

func TestShutdownServer_DeadlineIsCleanStop(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln)

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/callback")
		if err == nil {
			resp.Body.Close()
		}
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached the handler")
	}

	start := time.Now()
	assert.NoError(t, shutdownServer(srv, 50*time.Millisecond))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestShutdownServer_Idle(t *testing.T) {
	srv := &http.Server{Handler: http.NewServeMux()}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln)

	assert.NoError(t, shutdownServer(srv, time.Second))
}
