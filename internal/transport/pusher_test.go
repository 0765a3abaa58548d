package transport

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// bench accepts a single connection, consumes the stream and closes it.
func bench(t *testing.T, ln net.Listener) <-chan []byte {
	t.Helper()
	out := make(chan []byte, 1)
	go func() {
		defer close(out)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		data, _ := io.ReadAll(conn)
		out <- data
	}()
	return out
}

func testConfig(endpoint string) *Config {
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.DialTimeout = time.Second
	cfg.MaxInterval = 20 * time.Millisecond
	cfg.MaxTries = 3
	return cfg
}

func TestPush(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	received := bench(t, ln)

	pusher, err := NewPusher(testConfig(ln.Addr().String()), WithLog(zaptest.NewLogger(t).Sugar()))
	require.NoError(t, err)

	payload := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 100_000)
	n, err := pusher.Push(context.Background(), bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), n)
	require.Equal(t, payload, <-received)
}

func TestPushRetriesUntilBenchIsUp(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	endpoint := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg := testConfig(endpoint)
	cfg.MaxTries = 0

	started := make(chan (<-chan []byte), 1)
	go func() {
		time.Sleep(100 * time.Millisecond)
		ln, err := net.Listen("tcp", endpoint)
		if err != nil {
			close(started)
			return
		}
		t.Cleanup(func() { ln.Close() })
		started <- bench(t, ln)
	}()

	pusher, err := NewPusher(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := pusher.Push(ctx, bytes.NewReader([]byte("vectors")))
	require.NoError(t, err)
	require.Equal(t, int64(7), n)

	received, ok := <-started
	require.True(t, ok)
	require.Equal(t, []byte("vectors"), <-received)
}

func TestPushMaxTries(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	endpoint := ln.Addr().String()
	require.NoError(t, ln.Close())

	pusher, err := NewPusher(testConfig(endpoint))
	require.NoError(t, err)

	_, err = pusher.Push(context.Background(), bytes.NewReader(nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), "after 3 attempt(s)")
}

func TestPushCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// The bench never closes the connection.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = io.Copy(io.Discard, conn)
		time.Sleep(time.Minute)
		conn.Close()
	}()

	pusher, err := NewPusher(testConfig(ln.Addr().String()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err = pusher.Push(ctx, bytes.NewReader([]byte("vectors")))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewPusherValidatesEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "localhost", "::1"} {
		cfg := DefaultConfig()
		cfg.Endpoint = endpoint
		_, err := NewPusher(cfg)
		require.Error(t, err, "endpoint %q", endpoint)
	}
}
