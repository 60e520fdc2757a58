// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package lis2mdl drives the ST LIS2MDL three-axis magnetometer over a
// register-oriented I2C transport. It is the magnetic input feed of the
// orientation pipeline: raw counts come out of ReadVector, Calibrate
// estimates hard/soft-iron corrections, and SelfTest validates the
// sensing element against the datasheet acceptance band.
package lis2mdl

import (
	"errors"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// Default sensitivity in gauss per count.
const DefaultSensitivity = 0.0015

// ErrChipID is returned by New when WHO_AM_I does not match ChipID.
var ErrChipID = errors.New("unexpected chip id")

// RawSample is one decoded magnetometer reading in counts.
type RawSample struct {
	X int16
	Y int16
	Z int16
}

// Opts holds construction options.
//
// Sensitivity defaults to DefaultSensitivity (gauss/count). Sleep and
// Logf default to time.Sleep and log.Printf; tests substitute a virtual
// clock and a capturing sink so the long sampling passes run instantly.
type Opts struct {
	Addr        uint16
	ODR         ODR
	Sensitivity float64
	Retries     int

	// SkipChipIDCheck constructs the device even when WHO_AM_I does
	// not read back as ChipID.
	SkipChipIDCheck bool

	Sleep func(time.Duration)
	Logf  func(format string, args ...interface{})
}

// Dev represents an LIS2MDL device. All configuration lives on the
// handle; there is no package-level mutable state. The bus is owned
// exclusively by whichever caller is executing a method, so concurrent
// flows must serialize externally.
type Dev struct {
	tr    Transport
	mRes  float64
	sleep func(time.Duration)
	logf  func(format string, args ...interface{})
}

// New opens the device on an I2C bus, verifies its identity, resets it
// and configures continuous conversion at the given output data rate.
func New(bus i2c.Bus, opts Opts) (*Dev, error) {
	return NewWithTransport(NewI2CTransport(bus, opts.Addr, opts.Retries), opts)
}

// NewWithTransport is New over a caller-supplied transport.
func NewWithTransport(tr Transport, opts Opts) (*Dev, error) {
	d := &Dev{
		tr:    tr,
		mRes:  opts.Sensitivity,
		sleep: opts.Sleep,
		logf:  opts.Logf,
	}
	if d.mRes == 0 {
		d.mRes = DefaultSensitivity
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	if d.logf == nil {
		d.logf = log.Printf
	}

	id, err := d.ChipID()
	if err != nil {
		return nil, fmt.Errorf("lis2mdl: identify: %w", err)
	}
	if id != ChipID && !opts.SkipChipIDCheck {
		return nil, fmt.Errorf("lis2mdl: %w: got 0x%02X, want 0x%02X", ErrChipID, id, ChipID)
	}

	if err := d.Reset(); err != nil {
		return nil, fmt.Errorf("lis2mdl: reset: %w", err)
	}
	if err := d.Configure(opts.ODR); err != nil {
		return nil, fmt.Errorf("lis2mdl: configure: %w", err)
	}
	return d, nil
}

// Sensitivity returns the configured conversion factor in gauss/count.
func (d *Dev) Sensitivity() float64 { return d.mRes }

// ChipID reads the WHO_AM_I register. The raw value is returned without
// validation so the caller can decide pass/fail.
func (d *Dev) ChipID() (byte, error) {
	return d.tr.ReadRegister(regWhoAmI)
}

// Reset issues a soft reset followed by a memory reboot. The order
// matters, and each write needs its settle delay before the registers
// can be trusted again.
func (d *Dev) Reset() error {
	a, err := d.tr.ReadRegister(regCfgA)
	if err != nil {
		return err
	}
	if err := d.tr.WriteRegister(regCfgA, a|cfgASoftReset); err != nil {
		return err
	}
	d.sleep(1 * time.Millisecond)
	if err := d.tr.WriteRegister(regCfgA, a|cfgAReboot); err != nil {
		return err
	}
	d.sleep(100 * time.Millisecond)
	return nil
}

// Configure enables temperature compensation and continuous conversion
// at the given rate, the low pass filter, and block data update with
// data-ready on the interrupt pin. All three writes must land before
// sampling starts; their order relative to each other does not matter.
func (d *Dev) Configure(odr ODR) error {
	if err := d.tr.WriteRegister(regCfgA, cfgATempComp|byte(odr)<<2); err != nil {
		return err
	}
	if err := d.tr.WriteRegister(regCfgB, cfgBLowPass); err != nil {
		return err
	}
	return d.tr.WriteRegister(regCfgC, cfgCDataReady|cfgCBlockData)
}

// Status reads the status register. The bitfield meaning is owned by
// the device and not decoded here.
func (d *Dev) Status() (byte, error) {
	return d.tr.ReadRegister(regStatus)
}

// ReadRegister reads an arbitrary register. Used by the register debug
// tooling.
func (d *Dev) ReadRegister(reg byte) (byte, error) {
	return d.tr.ReadRegister(reg)
}

// ReadVector reads one raw sample. The read spans 8 bytes even though
// only 6 carry axis data: the device's register block has two trailing
// bytes that must be drained, so the read length is load-bearing.
func (d *Dev) ReadVector() (RawSample, error) {
	var raw [8]byte
	if err := d.tr.ReadRegisters(autoIncrement|regOutXL, raw[:]); err != nil {
		return RawSample{}, err
	}
	return RawSample{
		X: int16(raw[1])<<8 | int16(raw[0]),
		Y: int16(raw[3])<<8 | int16(raw[2]),
		Z: int16(raw[5])<<8 | int16(raw[4]),
	}, nil
}

// ReadTemp reads the raw temperature output.
func (d *Dev) ReadTemp() (int16, error) {
	var raw [2]byte
	if err := d.tr.ReadRegisters(autoIncrement|regTempL, raw[:]); err != nil {
		return 0, err
	}
	return int16(raw[1])<<8 | int16(raw[0]), nil
}
