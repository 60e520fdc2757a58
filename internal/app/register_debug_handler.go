// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/relabs-tech/mag_computer/internal/sensors"
)

// Register window exposed by the debug tool. The LIS2MDL register map
// spans the offset registers through the temperature output.
const (
	debugRegFirst = 0x45
	debugRegLast  = 0x6F
)

// WebSocket message types for register debugging
type RegisterCmd struct {
	Action  string `json:"action"` // "read", "read_all", "status"
	Address string `json:"addr,omitempty"`
}

type RegisterResponse struct {
	Type      string            `json:"type"` // "register_data", "register_map", "status", "error"
	Address   string            `json:"addr,omitempty"`
	Value     string            `json:"value,omitempty"`
	Registers map[string]string `json:"registers,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// HandleRegisterDebugWS serves raw register reads over a WebSocket so a
// browser page can inspect the live device state.
func HandleRegisterDebugWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("register debug: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	dev, err := sensors.GetMagDevice()
	if err != nil {
		conn.WriteJSON(RegisterResponse{Type: "error", Message: err.Error()})
		return
	}

	for {
		var cmd RegisterCmd
		if err := conn.ReadJSON(&cmd); err != nil {
			log.Printf("register debug: websocket read error: %v", err)
			return
		}

		switch cmd.Action {
		case "read":
			addr, err := strconv.ParseUint(cmd.Address, 0, 8)
			if err != nil {
				conn.WriteJSON(RegisterResponse{Type: "error", Message: fmt.Sprintf("bad address %q", cmd.Address)})
				continue
			}
			val, err := dev.ReadRegister(byte(addr))
			if err != nil {
				conn.WriteJSON(RegisterResponse{Type: "error", Message: err.Error()})
				continue
			}
			conn.WriteJSON(RegisterResponse{
				Type:    "register_data",
				Address: fmt.Sprintf("0x%02X", addr),
				Value:   fmt.Sprintf("0x%02X", val),
			})

		case "read_all":
			regs := make(map[string]string)
			var readErr error
			for addr := byte(debugRegFirst); addr <= debugRegLast; addr++ {
				val, err := dev.ReadRegister(addr)
				if err != nil {
					readErr = err
					break
				}
				regs[fmt.Sprintf("0x%02X", addr)] = fmt.Sprintf("0x%02X", val)
			}
			if readErr != nil {
				conn.WriteJSON(RegisterResponse{Type: "error", Message: readErr.Error()})
				continue
			}
			conn.WriteJSON(RegisterResponse{Type: "register_map", Registers: regs})

		case "status":
			st, err := dev.Status()
			if err != nil {
				conn.WriteJSON(RegisterResponse{Type: "error", Message: err.Error()})
				continue
			}
			conn.WriteJSON(RegisterResponse{
				Type:  "status",
				Value: fmt.Sprintf("0x%02X", st),
			})

		default:
			conn.WriteJSON(RegisterResponse{Type: "error", Message: fmt.Sprintf("unknown action %q", cmd.Action)})
		}
	}
}
