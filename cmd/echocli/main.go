package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/robotalks/echoback/pkg/cli"
	"github.com/robotalks/echoback/pkg/host"
	"github.com/robotalks/echoback/pkg/link"
)

var (
	device = "/dev/ttyACM0"
	baud   = link.DefaultBaud
)

func init() {
	if val := os.Getenv("ECHOBACK_PORT"); val != "" {
		device = val
	}
	flag.StringVar(&device, "port", device, "Serial port device.")
	flag.IntVar(&baud, "baud", baud, "Serial bit rate.")
}

func main() {
	flag.Parse()

	pipe, err := link.Open(device, baud)
	if err != nil {
		log.Fatalf("open %s failed: %v", device, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pipe.Run(ctx)

	if err := cli.New(host.NewClient(pipe)).Run(flag.Args()...); err != nil {
		log.Fatalln(err)
	}
}
