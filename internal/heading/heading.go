// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package heading

import (
	"math"

	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
	"github.com/relabs-tech/mag_computer/internal/mag"
)

// Reading is the corrected magnetic field in gauss plus the derived
// heading, the feed this system contributes to orientation fusion.
type Reading struct {
	Mx float64 `json:"mx"` // gauss, corrected
	My float64 `json:"my"`
	Mz float64 `json:"mz"`

	Degrees float64 `json:"degrees"` // 0..360, magnetic north
}

// Source is anything that can provide headings over time: the real
// sensor behind a calibration, a mock source, or a replay.
type Source interface {
	Next() (Reading, error)
}

// FromSample applies a stored calibration to a raw sample and computes
// the heading from the horizontal field components. This assumes the
// sensor is roughly level; tilt compensation belongs to the fusion
// stage that also owns an accelerometer.
func FromSample(cal lis2mdl.Calibration, s mag.Sample, sensitivity float64) Reading {
	c := cal.Apply(lis2mdl.RawSample{X: s.Mx, Y: s.My, Z: s.Mz}, sensitivity)
	return Reading{
		Mx:      c[0],
		My:      c[1],
		Mz:      c[2],
		Degrees: FromVector(c[0], c[1]),
	}
}

// FromVector computes the heading in degrees from the horizontal field
// components, normalized to [0, 360).
func FromVector(mx, my float64) float64 {
	deg := math.Atan2(my, mx) * 180.0 / math.Pi
	if deg < 0 {
		deg += 360.0
	}
	return deg
}
