package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/mag_computer/internal/config"
	"github.com/relabs-tech/mag_computer/internal/heading"
)

func RunConsoleMQTT(configPath string) error {
	if err := config.InitGlobal(configPath); err != nil {
		return fmt.Errorf("console: config init: %w", err)
	}
	cfg := config.Get()

	clientID := cfg.MQTTClientIDConsole
	if clientID == "" {
		clientID = "mag-console-subscriber"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	topicMag := cfg.TopicMag
	if topicMag == "" {
		topicMag = "mag/raw"
	}
	topicHeading := cfg.TopicHeading
	if topicHeading == "" {
		topicHeading = "mag/heading"
	}

	// Subscribe to raw samples
	magToken := client.Subscribe(topicMag, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p magPayload
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: mag unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[MAG ]  mx=%6d my=%6d mz=%6d  cx=%7.4f cy=%7.4f cz=%7.4f  temp=%6d\n",
			p.Mx, p.My, p.Mz, p.Cx, p.Cy, p.Cz, p.TempRaw,
		)
	})
	magToken.Wait()
	if magToken.Error() != nil {
		return magToken.Error()
	}
	log.Printf("console: subscribed to %s", topicMag)

	// Subscribe to headings
	headingToken := client.Subscribe(topicHeading, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var h heading.Reading
		if err := json.Unmarshal(msg.Payload(), &h); err != nil {
			log.Printf("console: heading unmarshal error: %v", err)
			return
		}

		fmt.Printf("[HDG ]  HEADING=%6.2f\n", h.Degrees)
	})
	headingToken.Wait()
	if headingToken.Error() != nil {
		return headingToken.Error()
	}
	log.Printf("console: subscribed to %s", topicHeading)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
