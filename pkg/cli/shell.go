// Package cli provides the interactive host console for talking to an
// echo-back device.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/echoback/pkg/host"
)

const shellKey = "$shell"

var (
	// flags

	evalOnly bool
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// Shell wraps ishell around a host.Client.
type Shell struct {
	Interactive bool

	Shell  *ishell.Shell
	Client *host.Client
}

// New creates a shell over a connected client.
func New(client *host.Client) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Shell:       ishell.New(),
		Client:      client,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt("echoback > ")
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Run runs the shell, or processes args non-interactively.
func (s *Shell) Run(args ...string) error {
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if s.Interactive {
		s.Shell.Run()
		return nil
	}
	return fmt.Errorf("command expected")
}

// roundTrip streams payload and verifies the echo, printing progress the
// way the reference bench script does.
func roundTrip(c *ishell.Context, payload []byte) {
	s := ShellFrom(c)
	s.Client.Report = func(line string) {
		c.Println(line)
	}
	defer func() { s.Client.Report = nil }()

	c.Printf("Sending %d bytes (%d bits)...\n", len(payload), len(payload)*8)
	ctx := context.Background()
	if err := s.Client.Stream(ctx, payload); err != nil {
		c.Err(err)
		return
	}

	c.Println("All data sent. Waiting for echo...")
	res, err := s.Client.Collect(ctx)
	if err != nil {
		c.Err(err)
		return
	}
	c.Printf("Received %d bytes in %v (%.2f bps)\n", len(res.Data), res.Elapsed.Round(time.Millisecond), res.BPS)
	if string(res.Data) == string(payload) {
		c.Println("Echo verified")
		return
	}
	c.Printf("Echo MISMATCH: sent %d bytes, got %d\n", len(payload), len(res.Data))
	c.Println(string(res.Data))
}

var commands = []*ishell.Cmd{
	{
		Name: "send",
		Help: "TEXT... - send text and verify the echo",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("text expected"))
				return
			}
			roundTrip(c, []byte(strings.Join(c.Args, " ")))
		},
	},
	{
		Name: "sendfile",
		Help: "PATH - send file contents and verify the echo",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("path expected"))
				return
			}
			data, err := ioutil.ReadFile(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			roundTrip(c, data)
		},
	},
	{
		Name:    "bench",
		Aliases: []string{"b"},
		Help:    "send the reference paragraph and verify the echo",
		Func: func(c *ishell.Context) {
			roundTrip(c, []byte(host.DefaultPayload))
		},
	},
	{
		Name: "collect",
		Help: "collect device output until the quiet period",
		Func: func(c *ishell.Context) {
			res, err := ShellFrom(c).Client.Collect(context.Background())
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("Received %d bytes (%.2f bps)\n", len(res.Data), res.BPS)
			c.Println(string(res.Data))
		},
	},
}
