// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lis2mdl

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// Transport is the register-level bus access the driver runs on. The
// production implementation talks I2C via periph; tests substitute a
// scripted fake.
type Transport interface {
	ReadRegister(reg byte) (byte, error)
	ReadRegisters(reg byte, buf []byte) error
	WriteRegister(reg byte, val byte) error
}

// BusError reports a failed bus transaction. Every transport call that
// fails returns one of these rather than zeroed data.
type BusError struct {
	Op  string
	Reg byte
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus %s reg 0x%02X: %v", e.Op, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

// I2CTransport implements Transport over a periph I2C device. Each
// transaction is retried up to Retries additional times before the
// failure is surfaced, so a transient NAK does not abort a long
// calibration pass.
type I2CTransport struct {
	dev     i2c.Dev
	retries int
}

// NewI2CTransport wraps an open I2C bus. retries is the number of
// additional attempts per transaction (0 = single attempt).
func NewI2CTransport(bus i2c.Bus, addr uint16, retries int) *I2CTransport {
	if addr == 0 {
		addr = DefaultAddr
	}
	if retries < 0 {
		retries = 0
	}
	return &I2CTransport{
		dev:     i2c.Dev{Addr: addr, Bus: bus},
		retries: retries,
	}
}

func (t *I2CTransport) ReadRegister(reg byte) (byte, error) {
	buf := make([]byte, 1)
	if err := t.tx("read", reg, []byte{reg}, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (t *I2CTransport) ReadRegisters(reg byte, buf []byte) error {
	return t.tx("read", reg, []byte{reg}, buf)
}

func (t *I2CTransport) WriteRegister(reg byte, val byte) error {
	return t.tx("write", reg, []byte{reg, val}, nil)
}

func (t *I2CTransport) tx(op string, reg byte, w, r []byte) error {
	var err error
	for attempt := 0; attempt <= t.retries; attempt++ {
		if err = t.dev.Tx(w, r); err == nil {
			return nil
		}
	}
	return &BusError{Op: op, Reg: reg, Err: err}
}
