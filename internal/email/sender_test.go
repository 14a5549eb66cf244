package email

import (
	"context"
	"net"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diabeater-console/internal/config"
)

// closingSMTP accepts connections and hangs up before the greeting.
func closingSMTP(t *testing.T) (host string, port int, dials *int64) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	var count int64
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			atomic.AddInt64(&count, 1)
			_ = conn.Close()
		}
	}()

	h, p, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(p)
	require.NoError(t, err)
	return h, portNum, &count
}

func TestSendMakesSingleAttempt(t *testing.T) {
	host, port, dials := closingSMTP(t)
	s := NewSender(&config.Config{
		SMTPHost:     host,
		SMTPPort:     port,
		SMTPFrom:     "noreply@diabeater.test",
		SMTPFromName: "DiaBeater",
	})

	started := time.Now()
	err := s.Send(context.Background(), "ada@example.com", "Hello", "<p>hi</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ada@example.com")
	assert.Less(t, time.Since(started), time.Second)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(dials))
}

func TestSendWithoutHostIsDropped(t *testing.T) {
	s := NewSender(&config.Config{SMTPPort: 587})
	assert.False(t, s.Enabled())
	assert.NoError(t, s.Send(context.Background(), "ada@example.com", "Hello", "<p>hi</p>"))
}

func TestSendHonoursCancelledContext(t *testing.T) {
	host, port, dials := closingSMTP(t)
	s := NewSender(&config.Config{SMTPHost: host, SMTPPort: port, SMTPFrom: "noreply@diabeater.test"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Send(ctx, "ada@example.com", "Hello", "<p>hi</p>")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), atomic.LoadInt64(dials))
}
