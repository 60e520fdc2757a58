// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/mag_computer/internal/config"
	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
	"github.com/relabs-tech/mag_computer/internal/mag"
)

var (
	magDev     *lis2mdl.Dev
	magBus     i2c.BusCloser
	magOnce    sync.Once
	magInitErr error
)

// initMag initializes the magnetometer once
func initMag() {
	magOnce.Do(func() {
		cfg := config.Get()
		if cfg == nil {
			magInitErr = fmt.Errorf("mag: config not initialized")
			return
		}

		// Initialize periph host
		if _, err := host.Init(); err != nil {
			magInitErr = fmt.Errorf("mag: periph host init: %w", err)
			return
		}

		bus, err := i2creg.Open(cfg.MagI2CBus)
		if err != nil {
			magInitErr = fmt.Errorf("mag: i2c open (%s): %w", cfg.MagI2CBus, err)
			return
		}

		odrHz := cfg.MagODRHz
		if odrHz == 0 {
			odrHz = 100
		}

		dev, err := lis2mdl.New(bus, lis2mdl.Opts{
			Addr:        cfg.MagI2CAddr,
			ODR:         odrCode(odrHz),
			Sensitivity: cfg.MagSensitivity,
			Retries:     cfg.MagBusRetries,
		})
		if err != nil {
			bus.Close()
			magInitErr = fmt.Errorf("mag: device init: %w", err)
			return
		}

		id, err := dev.ChipID()
		if err != nil {
			log.Printf("mag: WARNING: chip id re-read failed: %v", err)
		} else {
			log.Printf("mag: LIS2MDL ready on bus %s addr 0x%02X (WHO_AM_I=0x%02X, ODR=%dHz)",
				cfg.MagI2CBus, effectiveAddr(cfg.MagI2CAddr), id, odrHz)
		}

		magDev = dev
		magBus = bus
	})
}

func odrCode(hz int) lis2mdl.ODR {
	switch hz {
	case 10:
		return lis2mdl.ODR10Hz
	case 20:
		return lis2mdl.ODR20Hz
	case 50:
		return lis2mdl.ODR50Hz
	default:
		return lis2mdl.ODR100Hz
	}
}

func effectiveAddr(addr uint16) uint16 {
	if addr == 0 {
		return lis2mdl.DefaultAddr
	}
	return addr
}

// GetMagDevice returns the shared magnetometer handle, initializing it
// on first use.
func GetMagDevice() (*lis2mdl.Dev, error) {
	initMag()
	return magDev, magInitErr
}

// ReadMagSample reads one raw vector plus the raw temperature output.
func ReadMagSample() (mag.Sample, error) {
	dev, err := GetMagDevice()
	if err != nil {
		return mag.Sample{}, err
	}

	v, err := dev.ReadVector()
	if err != nil {
		return mag.Sample{}, fmt.Errorf("mag: read vector: %w", err)
	}
	temp, err := dev.ReadTemp()
	if err != nil {
		return mag.Sample{}, fmt.Errorf("mag: read temperature: %w", err)
	}

	return mag.Sample{Mx: v.X, My: v.Y, Mz: v.Z, TempRaw: temp}, nil
}

type magSource struct{}

// NewMagSource returns a mag.Source backed by the shared device.
func NewMagSource() (mag.Source, error) {
	if _, err := GetMagDevice(); err != nil {
		return nil, err
	}
	return magSource{}, nil
}

func (magSource) Next() (mag.Sample, error) {
	return ReadMagSample()
}
