package main

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestStartBackend_ServesAndReportsBindErrors(t *testing.T) {
	logger := arbor.NewLogger()

	srv, apiURL, err := startBackend("127.0.0.1:0", logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
	})
	require.True(t, strings.HasPrefix(apiURL, "http://127.0.0.1:"), apiURL)

	resp, err := http.Get(apiURL + "/tags")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// the port is taken, so the second bind fails immediately
	taken := strings.TrimSuffix(strings.TrimPrefix(apiURL, "http://"), "/api")
	_, _, err = startBackend(taken, logger)
	assert.Error(t, err)
}

func TestDialAddr(t *testing.T) {
	assert.Equal(t, "localhost:3000", dialAddr(&net.TCPAddr{IP: net.IPv6unspecified, Port: 3000}))
	assert.Equal(t, "localhost:3000", dialAddr(&net.TCPAddr{Port: 3000}))
	assert.Equal(t, "127.0.0.1:4100", dialAddr(&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 4100}))
}

func TestSelectSuites(t *testing.T) {
	suites, err := selectSuites("api, unit")
	require.NoError(t, err)
	require.Len(t, suites, 2)
	assert.Equal(t, "api", suites[0].Name)
	assert.Equal(t, "unit", suites[1].Name)

	_, err = selectSuites("smoke")
	assert.Error(t, err)
	_, err = selectSuites(" , ")
	assert.Error(t, err)
}
