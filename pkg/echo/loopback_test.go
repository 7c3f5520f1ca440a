package echo_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/echoback/pkg/echo"
	"github.com/robotalks/echoback/pkg/host"
	"github.com/robotalks/echoback/pkg/link"
)

type rwPair struct {
	io.Reader
	io.Writer
}

// TestLoopback wires a real engine and a real host client over an
// in-memory duplex, the full path a hardware round trip takes.
func TestLoopback(t *testing.T) {
	hostToDevR, hostToDevW := io.Pipe()
	devToHostR, devToHostW := io.Pipe()
	defer hostToDevW.Close()
	defer devToHostW.Close()

	devPipe := link.NewPipe(&rwPair{Reader: hostToDevR, Writer: devToHostW})
	hostPipe := link.NewPipe(&rwPair{Reader: devToHostR, Writer: hostToDevW})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go devPipe.Run(ctx)
	go hostPipe.Run(ctx)

	engine := echo.New(echo.Config{
		Capacity:     64,
		TickInterval: 50 * time.Millisecond,
		Timeout:      120 * time.Millisecond,
		SettleDelay:  10 * time.Millisecond,
		Poll:         10 * time.Millisecond,
	}, devPipe, devPipe.Recv())
	go engine.Run(ctx)

	client := host.NewClient(hostPipe)
	client.Grace = 100 * time.Millisecond
	client.Quiet = 150 * time.Millisecond

	var lines []string
	client.Report = func(line string) {
		lines = append(lines, line)
	}

	// the ready banner goes out before any payload
	res, err := client.Collect(ctx)
	require.NoError(t, err)
	require.Equal(t, echo.ReadyBanner, string(res.Data))

	require.NoError(t, client.Stream(ctx, []byte("HELLO")))
	res, err = client.Collect(ctx)
	require.NoError(t, err)
	require.Equal(t, "HELLO", string(res.Data))
	require.Contains(t, lines, "Speed: 40 bps")

	// a second round trip over the same link
	require.NoError(t, client.Stream(ctx, []byte("WORLD")))
	res, err = client.Collect(ctx)
	require.NoError(t, err)
	require.Equal(t, "WORLD", string(res.Data))
}
