// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// ./cmd/calibration/main.go
//
// Guided calibration for the LIS2MDL magnetometer in this project.
// Runs:
//  1. Self-test: differential check of the sensing element against the
//     15-500 mG acceptance band (excited vs. quiescent response)
//  2. Mag: guided 3D rotation to estimate hard-iron offset + per-axis
//     soft-iron scale (min/max method, 4000 samples, ~48s)
//
// Output:
//
//	Writes a timestamped JSON file in the current directory with the
//	offsets, scales and self-test verdict.
//
// Run:
//
//	go run ./cmd/calibration
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/relabs-tech/mag_computer/internal/app"
	"github.com/relabs-tech/mag_computer/internal/config"
	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
	"github.com/relabs-tech/mag_computer/internal/sensors"
)

func main() {
	in := bufio.NewReader(os.Stdin)

	configPath := flag.String("config", "mag_config.txt", "Path to configuration file")
	skipSelfTest := flag.Bool("skip-selftest", false, "Skip the self-test phase")
	flag.Parse()

	fmt.Println("=== Guided Magnetometer Calibration (LIS2MDL) ===")
	fmt.Println("This workflow will prompt you in the console and store results in a timestamped JSON file.")
	fmt.Println()

	if err := config.InitGlobal(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load config from %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	dev, err := sensors.GetMagDevice()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: magnetometer init failed: %v\n", err)
		os.Exit(1)
	}

	id, err := dev.ChipID()
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Detected LIS2MDL (WHO_AM_I=0x%02X)\n\n", id)

	// ---------------- Self-test ----------------
	var st *lis2mdl.SelfTestResult
	if !*skipSelfTest {
		fmt.Println("Step 1/2 - Self-test")
		fmt.Println("Keep the device still and away from moving metal objects.")
		waitEnter(in, "Press ENTER to start the self-test (~5s)...")

		res, err := dev.SelfTest()
		if err != nil {
			fatal(err)
		}
		st = &res

		fmt.Printf("Self-test deltas: X=%.1f mG Y=%.1f mG Z=%.1f mG (acceptance %.0f-%.0f mG)\n",
			res.Delta[0], res.Delta[1], res.Delta[2], lis2mdl.SelfTestMinMG, lis2mdl.SelfTestMaxMG)
		if res.Pass {
			fmt.Println("Self-test PASSED.")
		} else {
			fmt.Println("Self-test FAILED. Calibration results from this unit may be unreliable.")
		}
		fmt.Println()
	}

	// ---------------- Calibration ----------------
	fmt.Println("Step 2/2 - Hard/soft-iron calibration")
	fmt.Println("Rotate the device slowly through all orientations (3D) for the whole pass.")
	fmt.Println("Move away from large metal objects and power cables if possible.")
	waitEnter(in, "Press ENTER to start the calibration pass (~48s)...")

	last := -1
	cal, err := dev.Calibrate(func(done, total int) {
		pct := done * 100 / total
		if pct/10 != last {
			last = pct / 10
			fmt.Printf("  %3d%%\n", pct)
		}
	})
	if err != nil {
		if errors.Is(err, lis2mdl.ErrDegenerateCalibration) {
			fmt.Fprintln(os.Stderr, "ERROR: an axis never varied during the pass; rotate through all orientations and retry.")
		}
		fatal(err)
	}

	fmt.Printf("\nHard-iron offset (G): X=%.4f Y=%.4f Z=%.4f\n",
		cal.HardIron[0], cal.HardIron[1], cal.HardIron[2])
	fmt.Printf("Soft-iron scale:      X=%.3f Y=%.3f Z=%.3f\n",
		cal.SoftIron[0], cal.SoftIron[1], cal.SoftIron[2])

	name, err := app.WriteCalibrationRecord(app.NewCalibrationRecord(cal, st))
	if err != nil {
		fatal(err)
	}

	fmt.Println("\nCalibration complete.")
	fmt.Printf("Saved to ./%s\n", name)
	fmt.Println("Point CALIBRATION_FILE in the config at this file to apply it.")
}

// ---------- Console helpers ----------

func waitEnter(in *bufio.Reader, prompt string) {
	fmt.Print(prompt)
	_, _ = in.ReadString('\n')
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
