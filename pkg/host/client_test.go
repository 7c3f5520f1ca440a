package host

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/echoback/pkg/link"
)

type testStream struct {
	io.Reader
	lock sync.Mutex
	out  []byte
}

func (s *testStream) Write(p []byte) (int, error) {
	s.lock.Lock()
	s.out = append(s.out, p...)
	s.lock.Unlock()
	return len(p), nil
}

func (s *testStream) sent() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return string(s.out)
}

func startClient(t *testing.T) (*Client, *testStream, *io.PipeWriter, func()) {
	r, w := io.Pipe()
	s := &testStream{Reader: r}
	p := link.NewPipe(s)
	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)
	c := NewClient(p)
	c.Quiet = 60 * time.Millisecond
	c.Grace = 50 * time.Millisecond
	return c, s, w, func() {
		cancel()
		w.Close()
	}
}

func TestStreamRelaysDeviceLines(t *testing.T) {
	c, s, w, stop := startClient(t)
	defer stop()

	var lines []string
	var lock sync.Mutex
	c.Report = func(line string) {
		lock.Lock()
		lines = append(lines, line)
		lock.Unlock()
	}

	go func() {
		w.Write([]byte("Speed: 16 bps\r\n"))
	}()
	require.NoError(t, c.Stream(context.Background(), []byte("HI")))
	require.Equal(t, "HI", s.sent())

	lock.Lock()
	defer lock.Unlock()
	require.Equal(t, []string{"Speed: 16 bps"}, lines)
}

func TestCollectQuietPeriod(t *testing.T) {
	c, _, w, stop := startClient(t)
	defer stop()

	go func() {
		w.Write([]byte("HEL"))
		time.Sleep(20 * time.Millisecond)
		w.Write([]byte("LO"))
	}()
	res, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, "HELLO", string(res.Data))
	require.True(t, res.Elapsed > 0)
	require.True(t, res.BPS > 0)
}

func TestCollectCancel(t *testing.T) {
	c, _, _, stop := startClient(t)
	defer stop()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Collect(ctx)
	require.Equal(t, context.Canceled, err)
}
