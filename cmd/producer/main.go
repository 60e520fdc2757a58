package main

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/relabs-tech/mag_computer/internal/heading"
)

func main() {
	log.Println("starting mag-computer MQTT producer (mock)")

	// 1) Connect to MQTT broker on the Pi
	opts := mqtt.NewClientOptions().
		AddBroker("tcp://localhost:1883").
		SetClientID("mag-producer-mock")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT connect error: %v", token.Error())
	}
	defer client.Disconnect(250)

	src := heading.NewMockSource()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		h, err := src.Next()
		if err != nil {
			log.Printf("error from mock source: %v", err)
			continue
		}

		payload, err := json.Marshal(h)
		if err != nil {
			log.Printf("json marshal error: %v", err)
			continue
		}

		token := client.Publish("mag/heading", 0, true, payload)
		token.Wait()

		log.Printf("%s published heading: %+v", t.Format(time.RFC3339), h)
	}
}
