// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lis2mdl

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// modalVectors serves one sample in normal mode and another while the
// self-test bit is set in CFG_REG_C.
func modalVectors(ft *fakeTransport, quiescent, excited RawSample) func(int) (RawSample, error) {
	return func(int) (RawSample, error) {
		if ft.regs[regCfgC]&cfgCSelfTest != 0 {
			return excited, nil
		}
		return quiescent, nil
	}
}

func TestSelfTestDeltasPerAxis(t *testing.T) {
	ft := newFakeTransport()
	ft.vectorFn = modalVectors(ft, RawSample{X: 10, Y: 10, Z: 10}, RawSample{X: 40, Y: 40, Z: 40})
	d := newTestDev(t, ft)

	res, err := d.SelfTest()
	if err != nil {
		t.Fatalf("SelfTest: %v", err)
	}

	// (40-10) counts * 0.0015 G/count * 1000 = 45 mG on every axis.
	want := (40.0 - 10.0) * DefaultSensitivity * 1000.0
	for i := 0; i < 3; i++ {
		if res.Delta[i] != want {
			t.Errorf("delta[%s] = %v, want %v", axisNames[i], res.Delta[i], want)
		}
		if !res.AxisPass[i] {
			t.Errorf("axis %s failed, want pass at %v mG", axisNames[i], want)
		}
	}
	if !res.Pass {
		t.Error("overall verdict = fail, want pass")
	}
	if ft.vectorCalls != 2*selfTestSamples {
		t.Errorf("vector reads = %d, want %d", ft.vectorCalls, 2*selfTestSamples)
	}
}

func TestSelfTestIndependentAxes(t *testing.T) {
	// Distinct responses per axis must stay distinct in the report.
	ft := newFakeTransport()
	ft.vectorFn = modalVectors(ft, RawSample{}, RawSample{X: 20, Y: 100, Z: 200})
	d := newTestDev(t, ft)

	res, err := d.SelfTest()
	if err != nil {
		t.Fatalf("SelfTest: %v", err)
	}
	want := [3]float64{
		20.0 * DefaultSensitivity * 1000.0,
		100.0 * DefaultSensitivity * 1000.0,
		200.0 * DefaultSensitivity * 1000.0,
	}
	for i := 0; i < 3; i++ {
		if res.Delta[i] != want[i] {
			t.Errorf("delta[%s] = %v, want %v", axisNames[i], res.Delta[i], want[i])
		}
	}
	if res.Delta[0] == res.Delta[1] || res.Delta[1] == res.Delta[2] {
		t.Error("axis deltas must be computed from their own sums")
	}
}

func TestSelfTestRegisterSequence(t *testing.T) {
	ft := newFakeTransport()
	ft.vectorFn = modalVectors(ft, RawSample{X: 10}, RawSample{X: 40})
	d := newTestDev(t, ft)

	var sleeps []time.Duration
	d.sleep = func(dur time.Duration) { sleeps = append(sleeps, dur) }

	prev := ft.regs[regCfgC]
	if _, err := d.SelfTest(); err != nil {
		t.Fatalf("SelfTest: %v", err)
	}

	want := []regWrite{
		{regCfgC, prev | cfgCSelfTest},
		{regCfgC, prev},
	}
	if len(ft.writes) != len(want) {
		t.Fatalf("writes = %v, want %v", ft.writes, want)
	}
	for i := range want {
		if ft.writes[i] != want[i] {
			t.Errorf("write %d = %+v, want %+v", i, ft.writes[i], want[i])
		}
	}
	if got := ft.regs[regCfgC]; got != prev {
		t.Errorf("CFG_REG_C = 0x%02X after self test, want restored 0x%02X", got, prev)
	}

	// 50 paced samples per pass plus a settle delay after each mode
	// write.
	if len(sleeps) != 2*selfTestSamples+2 {
		t.Fatalf("sleep count = %d, want %d", len(sleeps), 2*selfTestSamples+2)
	}
	if sleeps[selfTestSamples] != selfTestSettle || sleeps[len(sleeps)-1] != selfTestSettle {
		t.Errorf("settle delays = %v / %v, want %v", sleeps[selfTestSamples], sleeps[len(sleeps)-1], selfTestSettle)
	}
}

func TestSelfTestOutOfBandFails(t *testing.T) {
	// No response at all: delta 0 is below the 15 mG floor.
	ft := newFakeTransport()
	ft.vectorFn = modalVectors(ft, RawSample{X: 10, Y: 10, Z: 10}, RawSample{X: 10, Y: 10, Z: 10})
	d := newTestDev(t, ft)

	res, err := d.SelfTest()
	if err != nil {
		t.Fatalf("SelfTest: %v", err)
	}
	if res.Pass {
		t.Error("overall verdict = pass, want fail for zero response")
	}
	for i := 0; i < 3; i++ {
		if res.AxisPass[i] {
			t.Errorf("axis %s passed with zero delta", axisNames[i])
		}
	}
}

func TestSelfTestNegativeDeltaInBand(t *testing.T) {
	// The band is on the response magnitude, not its sign.
	ft := newFakeTransport()
	ft.vectorFn = modalVectors(ft, RawSample{X: 40, Y: 40, Z: 40}, RawSample{X: 10, Y: 10, Z: 10})
	d := newTestDev(t, ft)

	res, err := d.SelfTest()
	if err != nil {
		t.Fatalf("SelfTest: %v", err)
	}
	if !res.Pass {
		t.Errorf("overall verdict = fail for delta %v mG, want pass", res.Delta)
	}
}

func TestSelfTestRestoresModeOnExcitedFault(t *testing.T) {
	ft := newFakeTransport()
	ft.vectorFn = func(int) (RawSample, error) {
		if ft.regs[regCfgC]&cfgCSelfTest != 0 {
			return RawSample{}, &BusError{Op: "read", Reg: regOutXL, Err: errors.New("nak")}
		}
		return RawSample{X: 10}, nil
	}
	d := newTestDev(t, ft)

	prev := ft.regs[regCfgC]
	_, err := d.SelfTest()
	var be *BusError
	if !errors.As(err, &be) {
		t.Fatalf("want wrapped *BusError, got %v", err)
	}
	if got := ft.regs[regCfgC]; got != prev {
		t.Errorf("CFG_REG_C = 0x%02X after fault, want restored 0x%02X", got, prev)
	}
}

// restoreFailTransport accepts the write that sets the self-test bit
// and rejects the write that clears it again.
type restoreFailTransport struct {
	*fakeTransport
	armed bool
}

func (f *restoreFailTransport) WriteRegister(reg byte, val byte) error {
	if reg == regCfgC {
		if val&cfgCSelfTest != 0 {
			f.armed = true
		} else if f.armed {
			return &BusError{Op: "write", Reg: regCfgC, Err: errors.New("nak")}
		}
	}
	return f.fakeTransport.WriteRegister(reg, val)
}

func TestSelfTestExcitedFaultSurvivesFailedRestore(t *testing.T) {
	// When the excited pass faults and the restore write fails on top
	// of it, the excited-pass fault stays the unwrappable root cause
	// and the restore failure is still reported.
	ft := newFakeTransport()
	ft.vectorFn = func(int) (RawSample, error) {
		if ft.regs[regCfgC]&cfgCSelfTest != 0 {
			return RawSample{}, &BusError{Op: "read", Reg: regOutXL, Err: errors.New("nak")}
		}
		return RawSample{X: 10}, nil
	}
	d, err := NewWithTransport(&restoreFailTransport{fakeTransport: ft}, Opts{
		Sleep: func(time.Duration) {},
		Logf:  func(string, ...interface{}) {},
	})
	if err != nil {
		t.Fatalf("NewWithTransport: %v", err)
	}

	_, err = d.SelfTest()
	var be *BusError
	if !errors.As(err, &be) {
		t.Fatalf("want wrapped *BusError, got %v", err)
	}
	if be.Op != "read" {
		t.Errorf("root cause op = %q, want the excited-pass read fault", be.Op)
	}
	if !strings.Contains(err.Error(), "restore also failed") {
		t.Errorf("restore failure dropped from error: %v", err)
	}
}
