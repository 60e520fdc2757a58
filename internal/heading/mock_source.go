// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package heading

import (
	"math"
	"time"
)

type mockSource struct {
	start time.Time
}

// NewMockSource creates a mock heading source that sweeps slowly
// through the compass, for development without hardware.
func NewMockSource() Source {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) Next() (Reading, error) {
	elapsed := time.Since(m.start).Seconds()
	deg := math.Mod(elapsed*15, 360)
	rad := deg * math.Pi / 180.0

	// A nominal 0.4 G horizontal field rotating at 15°/s.
	return Reading{
		Mx:      0.4 * math.Cos(rad),
		My:      0.4 * math.Sin(rad),
		Mz:      0.35,
		Degrees: deg,
	}, nil
}
