// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lis2mdl

import (
	"errors"
	"fmt"
	"time"
)

// Calibration pass parameters. 4000 samples at 12 ms paces the loop to
// roughly the output data rate and gives the operator ~48 s to cover
// the full rotational range.
const (
	calWarmup   = 4 * time.Second
	calSamples  = 4000
	calInterval = 12 * time.Millisecond
)

// ErrDegenerateCalibration is returned when an axis showed zero range
// during the sampling pass, leaving the soft-iron scale undefined.
var ErrDegenerateCalibration = errors.New("degenerate calibration: axis range is zero")

// Calibration holds the estimated hard-iron offset (gauss) and the
// dimensionless per-axis soft-iron scale. Corrected reading, in gauss:
//
//	corrected[i] = (raw[i]*sensitivity - HardIron[i]) * SoftIron[i]
type Calibration struct {
	HardIron [3]float64 `json:"hard_iron"`
	SoftIron [3]float64 `json:"soft_iron"`
}

// Identity returns a no-op calibration.
func Identity() Calibration {
	return Calibration{SoftIron: [3]float64{1, 1, 1}}
}

// Apply converts a raw sample to corrected gauss.
func (c Calibration) Apply(s RawSample, sensitivity float64) [3]float64 {
	raw := [3]int16{s.X, s.Y, s.Z}
	var out [3]float64
	for i := range raw {
		out[i] = (float64(raw[i])*sensitivity - c.HardIron[i]) * c.SoftIron[i]
	}
	return out
}

// extrema tracks per-axis running (min, max) over a sampling pass.
// Initialized to the opposite int16 extremes so the first sample seeds
// both sides.
type extrema struct {
	min [3]int16
	max [3]int16
}

func newExtrema() extrema {
	return extrema{
		min: [3]int16{32767, 32767, 32767},
		max: [3]int16{-32767, -32767, -32767},
	}
}

func (e *extrema) update(s RawSample) {
	raw := [3]int16{s.X, s.Y, s.Z}
	for i, v := range raw {
		if v > e.max[i] {
			e.max[i] = v
		}
		if v < e.min[i] {
			e.min[i] = v
		}
	}
}

var axisNames = [3]string{"X", "Y", "Z"}

// Calibrate runs the hard/soft-iron estimation pass. The operator must
// rotate the sensor through all orientations while it samples; the call
// blocks for the whole pass (~48 s on real hardware) and aborts on the
// first bus fault rather than continuing with partial data. There is no
// mid-pass retry: an aborted pass must be restarted from scratch.
//
// progress, when non-nil, is invoked after every sample.
func (d *Dev) Calibrate(progress func(done, total int)) (Calibration, error) {
	d.logf("mag: calibrating offset bias: move the sensor all around to sample the complete response surface")
	d.sleep(calWarmup)

	ext := newExtrema()
	for i := 0; i < calSamples; i++ {
		s, err := d.ReadVector()
		if err != nil {
			return Calibration{}, fmt.Errorf("calibration aborted at sample %d/%d: %w", i, calSamples, err)
		}
		ext.update(s)
		if progress != nil {
			progress(i+1, calSamples)
		}
		d.sleep(calInterval)
	}

	// Hard-iron bias and half-range per axis, in counts. Integer
	// division truncates toward zero, matching the estimation method
	// this pass was tuned with.
	var cal Calibration
	var basis [3]int32
	for i := 0; i < 3; i++ {
		bias := (int32(ext.max[i]) + int32(ext.min[i])) / 2
		cal.HardIron[i] = float64(bias) * d.mRes
		basis[i] = (int32(ext.max[i]) - int32(ext.min[i])) / 2
	}

	// Check for flat axes before any division so a degenerate pass is
	// surfaced as such instead of producing a non-finite scale.
	for i := 0; i < 3; i++ {
		if basis[i] == 0 {
			return Calibration{}, fmt.Errorf("axis %s: %w", axisNames[i], ErrDegenerateCalibration)
		}
	}

	avgRad := (float64(basis[0]) + float64(basis[1]) + float64(basis[2])) / 3.0
	for i := 0; i < 3; i++ {
		cal.SoftIron[i] = avgRad / float64(basis[i])
	}

	d.logf("mag: calibration done: offset=(%.4f, %.4f, %.4f) G scale=(%.3f, %.3f, %.3f)",
		cal.HardIron[0], cal.HardIron[1], cal.HardIron[2],
		cal.SoftIron[0], cal.SoftIron[1], cal.SoftIron[2])
	return cal, nil
}
