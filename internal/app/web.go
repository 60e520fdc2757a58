package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/relabs-tech/mag_computer/internal/config"
	"github.com/relabs-tech/mag_computer/internal/heading"
	"github.com/relabs-tech/mag_computer/internal/sensors"
)

func RunWeb(configPath string) error {
	var (
		mu          sync.RWMutex
		lastHeading heading.Reading
		haveHeading bool
	)

	if err := config.InitGlobal(configPath); err != nil {
		return fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	cfg := config.Get()

	if _, err := sensors.GetMagDevice(); err != nil {
		log.Printf("Warning: magnetometer initialization had issues: %v", err)
		log.Println("Continuing anyway - websocket clients will see the error")
	} else {
		log.Println("Magnetometer available")
	}

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID("mag-web-subscriber")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to heading topic and update lastHeading on each message
	headingTopic := cfg.TopicHeading
	if headingTopic == "" {
		headingTopic = "mag/heading"
	}
	token := client.Subscribe(headingTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var h heading.Reading
		if err := json.Unmarshal(msg.Payload(), &h); err != nil {
			log.Printf("MQTT payload unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastHeading = h
		haveHeading = true
		mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("subscribed to MQTT topic %s", headingTopic)

	// 3) JSON API endpoint: latest heading
	http.HandleFunc("/api/heading", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveHeading {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastHeading); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	// 4) Websocket endpoints for the calibration and register tools
	http.HandleFunc("/ws/calibration", HandleCalibrationWS)
	http.HandleFunc("/ws/registers", HandleRegisterDebugWS)

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	port := cfg.WebServerPort
	if port == 0 {
		port = 8080
	}
	addr := fmt.Sprintf(":%d", port)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
