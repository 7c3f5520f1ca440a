package main

import (
	"flag"
	"log"
	"os"

	"github.com/robotalks/echoback/pkg/telemetry"
)

var (
	mqttURL = "mqtt://localhost:1883/echoback/"
)

func init() {
	if val := os.Getenv("ECHOBACK_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	w, err := telemetry.Watch(mqttURL, func(topic string, payload []byte) {
		log.Printf("%s: %s", topic, string(payload))
	})
	if err != nil {
		log.Fatalln(err)
	}
	defer w.Close()
	select {}
}
