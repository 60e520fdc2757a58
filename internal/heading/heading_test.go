// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package heading

import (
	"math"
	"testing"

	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
	"github.com/relabs-tech/mag_computer/internal/mag"
)

func TestFromVectorCardinal(t *testing.T) {
	cases := []struct {
		mx, my float64
		want   float64
	}{
		{1, 0, 0},
		{0, 1, 90},
		{-1, 0, 180},
		{0, -1, 270},
	}
	for _, c := range cases {
		got := FromVector(c.mx, c.my)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("FromVector(%v, %v) = %v, want %v", c.mx, c.my, got, c.want)
		}
	}
}

func TestFromVectorRange(t *testing.T) {
	for deg := 0.0; deg < 360; deg += 7.5 {
		rad := deg * math.Pi / 180.0
		got := FromVector(math.Cos(rad), math.Sin(rad))
		if got < 0 || got >= 360 {
			t.Fatalf("heading %v out of [0, 360)", got)
		}
		if math.Abs(got-deg) > 1e-9 {
			t.Errorf("heading = %v, want %v", got, deg)
		}
	}
}

func TestFromSampleAppliesCalibration(t *testing.T) {
	cal := lis2mdl.Calibration{
		HardIron: [3]float64{0.15, 0, 0},
		SoftIron: [3]float64{1, 1, 1},
	}
	// Raw x of 100 counts at 0.0015 G/count equals the hard-iron
	// offset exactly, so the corrected field points along +y.
	r := FromSample(cal, mag.Sample{Mx: 100, My: 200, Mz: 50}, 0.0015)
	if r.Mx != 0 {
		t.Errorf("corrected Mx = %v, want 0", r.Mx)
	}
	if math.Abs(r.Degrees-90) > 1e-9 {
		t.Errorf("heading = %v, want 90", r.Degrees)
	}
}

func TestMockSourceBounds(t *testing.T) {
	src := NewMockSource()
	for i := 0; i < 10; i++ {
		r, err := src.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if r.Degrees < 0 || r.Degrees >= 360 {
			t.Fatalf("mock heading %v out of [0, 360)", r.Degrees)
		}
	}
}
