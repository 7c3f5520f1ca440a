package link

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testStream struct {
	io.Reader
	out bytes.Buffer
}

func (s *testStream) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func TestSendString(t *testing.T) {
	s := &testStream{Reader: bytes.NewReader(nil)}
	p := NewPipe(s)
	require.NoError(t, p.SendString("Ready to receive\n"))
	require.Equal(t, "Ready to receive\n", s.out.String())
}

func TestRecvPump(t *testing.T) {
	s := &testStream{Reader: bytes.NewReader([]byte("HELLO"))}
	p := NewPipe(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	var got []byte
	for i := 0; i < 5; i++ {
		select {
		case b := <-p.Recv():
			got = append(got, b)
		case <-time.After(time.Second):
			t.Fatal("recv timeout")
		}
	}
	require.Equal(t, "HELLO", string(got))

	// reader drained: pump stops cleanly on EOF
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pump did not stop on EOF")
	}
}

func TestRunCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := NewPipe(&testStream{Reader: r})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// fill the recv channel, then cancel while the pump is parked on send
	for i := 0; i < RecvBuffer+1; i++ {
		_, err := w.Write([]byte{0x55})
		require.NoError(t, err)
	}
	cancel()
	select {
	case err := <-done:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("pump did not stop on cancel")
	}
}
