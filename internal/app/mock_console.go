// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"fmt"
	"time"

	"github.com/relabs-tech/mag_computer/internal/heading"
)

func RunMockConsole() error {
	src := heading.NewMockSource()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		h, err := src.Next()
		if err != nil {
			return err
		}

		fmt.Printf(
			"MX=%7.4f  MY=%7.4f  MZ=%7.4f  HDG=%6.2f\n",
			h.Mx,
			h.My,
			h.Mz,
			h.Degrees,
		)
	}
	return nil
}
