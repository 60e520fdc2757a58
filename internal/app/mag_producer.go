// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/mag_computer/internal/config"
	"github.com/relabs-tech/mag_computer/internal/heading"
	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
	"github.com/relabs-tech/mag_computer/internal/sensors"
)

// magPayload is the JSON schema we publish on the raw topic.
// mx,my,mz are counts; cx,cy,cz are corrected gauss; time is RFC3339.
type magPayload struct {
	Mx      int16   `json:"mx"`
	My      int16   `json:"my"`
	Mz      int16   `json:"mz"`
	TempRaw int16   `json:"temp_raw"`
	Cx      float64 `json:"cx"`
	Cy      float64 `json:"cy"`
	Cz      float64 `json:"cz"`
	Heading float64 `json:"heading"`
	Time    string  `json:"time"`
}

func RunMagProducer(configPath string) error {
	if err := config.InitGlobal(configPath); err != nil {
		return fmt.Errorf("mag producer: config init: %w", err)
	}
	cfg := config.Get()

	dev, err := sensors.GetMagDevice()
	if err != nil {
		return fmt.Errorf("mag producer: %w", err)
	}

	// Load stored calibration; fall back to identity so the producer
	// still runs on an uncalibrated unit.
	cal := lis2mdl.Identity()
	if cfg.CalibrationFile != "" {
		cal, err = LoadCalibration(cfg.CalibrationFile)
		if err != nil {
			log.Printf("mag producer: WARNING: %v, using identity calibration", err)
			cal = lis2mdl.Identity()
		} else {
			log.Printf("mag producer: loaded calibration from %s", cfg.CalibrationFile)
		}
	} else {
		log.Println("mag producer: no CALIBRATION_FILE configured, using identity calibration")
	}

	clientID := cfg.MQTTClientIDProducer
	if clientID == "" {
		clientID = "mag-producer"
	}
	opts := mqtt.NewClientOptions().AddBroker(cfg.MQTTBroker).SetClientID(clientID)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mag producer: mqtt connect: %w", token.Error())
	}
	defer client.Disconnect(250)

	topicMag := cfg.TopicMag
	if topicMag == "" {
		topicMag = "mag/raw"
	}
	topicHeading := cfg.TopicHeading
	if topicHeading == "" {
		topicHeading = "mag/heading"
	}

	ms := cfg.MagSampleInterval
	if ms <= 0 {
		ms = 100
	}
	interval := time.Duration(ms) * time.Millisecond

	log.Printf("mag producer: started (interval=%v, topics %s / %s)", interval, topicMag, topicHeading)
	for {
		s, err := sensors.ReadMagSample()
		if err != nil {
			log.Printf("mag producer: read error: %v", err)
			time.Sleep(interval)
			continue
		}

		h := heading.FromSample(cal, s, dev.Sensitivity())

		payload := magPayload{
			Mx:      s.Mx,
			My:      s.My,
			Mz:      s.Mz,
			TempRaw: s.TempRaw,
			Cx:      h.Mx,
			Cy:      h.My,
			Cz:      h.Mz,
			Heading: h.Degrees,
			Time:    time.Now().UTC().Format(time.RFC3339),
		}
		if b, err := json.Marshal(payload); err != nil {
			log.Printf("mag producer: marshal error: %v", err)
		} else {
			client.Publish(topicMag, 0, false, b).Wait()
		}
		if b, err := json.Marshal(h); err != nil {
			log.Printf("mag producer: marshal error: %v", err)
		} else {
			client.Publish(topicHeading, 0, false, b).Wait()
		}

		time.Sleep(interval)
	}
}
