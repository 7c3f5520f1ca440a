package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/echoback/pkg/echo"
	"github.com/robotalks/echoback/pkg/link"
	"github.com/robotalks/echoback/pkg/run"
	"github.com/robotalks/echoback/pkg/telemetry"
)

var (
	device  = "/dev/ttyACM0"
	baud    = link.DefaultBaud
	mqttURL = ""
)

func init() {
	if val := os.Getenv("ECHOBACK_PORT"); val != "" {
		device = val
	}
	if val := os.Getenv("ECHOBACK_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&device, "port", device, "Serial port device.")
	flag.IntVar(&baud, "baud", baud, "Serial bit rate.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL for telemetry (disabled when empty).")
}

func main() {
	flag.Parse()

	pipe, err := link.Open(device, baud)
	if err != nil {
		glog.Exitf("open %s failed: %v", device, err)
	}

	engine := echo.New(echo.Config{}, pipe, pipe.Recv())

	if mqttURL != "" {
		pub, err := telemetry.NewPublisher(mqttURL)
		if err != nil {
			glog.Exitf("telemetry setup failed: %v", err)
		}
		if err := pub.Connect(); err != nil {
			glog.Exitf("telemetry connect failed: %v", err)
		}
		defer pub.Close()
		engine.Monitor = pub
	}

	g := run.NewGroup(context.Background()).HandleSignals()
	g.Go("link", pipe.Run)
	g.Go("engine", engine.Run)
	if err := g.Wait(); err != nil {
		glog.Exitf("stopped: %v", err)
	}
}
