// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
	"github.com/relabs-tech/mag_computer/internal/sensors"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// CalibrationSession holds the state of an active calibration
type CalibrationSession struct {
	Conn *websocket.Conn
	mu   sync.Mutex
}

// WebSocket message types
type WSMessage struct {
	Action string `json:"action"` // calibrate, selftest, cancel
}

type WSResponse struct {
	Type     string      `json:"type"` // phase, progress, result, complete, error
	Phase    string      `json:"phase,omitempty"`
	Progress float64     `json:"progress,omitempty"`
	Results  interface{} `json:"results,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// HandleCalibrationWS handles the WebSocket connection for calibration
// and self-test runs. The long sampling passes block this connection's
// goroutine; the device is shared, so the session mutex serializes runs
// triggered from one page.
func HandleCalibrationWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("calibration: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	session := &CalibrationSession{Conn: conn}

	for {
		var msg WSMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			log.Printf("calibration: websocket read error: %v", err)
			break
		}

		switch msg.Action {
		case "calibrate":
			session.mu.Lock()
			err := session.runCalibration()
			session.mu.Unlock()
			if err != nil {
				session.sendError(err.Error())
			}

		case "selftest":
			session.mu.Lock()
			err := session.runSelfTest()
			session.mu.Unlock()
			if err != nil {
				session.sendError(err.Error())
			}

		case "cancel":
			log.Printf("calibration: cancelled by user")
			return
		}
	}
}

func (s *CalibrationSession) runCalibration() error {
	dev, err := sensors.GetMagDevice()
	if err != nil {
		return err
	}

	s.sendPhase("calibrate")

	cal, err := dev.Calibrate(func(done, total int) {
		// One progress frame per percent is plenty for a browser.
		if done%(total/100) == 0 {
			s.sendProgress(float64(done) * 100.0 / float64(total))
		}
	})
	if err != nil {
		if errors.Is(err, lis2mdl.ErrDegenerateCalibration) {
			log.Printf("calibration: %v", err)
		}
		return err
	}

	rec := NewCalibrationRecord(cal, nil)
	filename, err := WriteCalibrationRecord(rec)
	if err != nil {
		return err
	}
	log.Printf("calibration: saved results to %s", filename)

	s.Conn.WriteJSON(WSResponse{
		Type: "complete",
		Results: map[string]interface{}{
			"filename":  filename,
			"hard_iron": cal.HardIron,
			"soft_iron": cal.SoftIron,
		},
	})
	return nil
}

func (s *CalibrationSession) runSelfTest() error {
	dev, err := sensors.GetMagDevice()
	if err != nil {
		return err
	}

	s.sendPhase("selftest")

	res, err := dev.SelfTest()
	if err != nil {
		return err
	}

	s.Conn.WriteJSON(WSResponse{
		Type:    "result",
		Phase:   "selftest",
		Results: res,
	})
	return nil
}

func (s *CalibrationSession) sendPhase(phase string) {
	s.Conn.WriteJSON(WSResponse{
		Type:  "phase",
		Phase: phase,
	})
}

func (s *CalibrationSession) sendProgress(progress float64) {
	s.Conn.WriteJSON(WSResponse{
		Type:     "progress",
		Progress: progress,
	})
}

func (s *CalibrationSession) sendError(message string) {
	s.Conn.WriteJSON(WSResponse{
		Type:    "error",
		Message: message,
	})
}
