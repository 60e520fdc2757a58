// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"os"
	"strings"
	"testing"

	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
)

func TestCalibrationRecordRoundTrip(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	cal := lis2mdl.Calibration{
		HardIron: [3]float64{0.1875, -0.0625, 0.0125},
		SoftIron: [3]float64{1.05, 0.95, 1.0},
	}
	st := &lis2mdl.SelfTestResult{
		Delta:    [3]float64{45, 45, 45},
		AxisPass: [3]bool{true, true, true},
		Pass:     true,
	}

	name, err := WriteCalibrationRecord(NewCalibrationRecord(cal, st))
	if err != nil {
		t.Fatalf("WriteCalibrationRecord: %v", err)
	}
	if !strings.HasSuffix(name, "_mag_calibration.json") {
		t.Errorf("file name = %q, want *_mag_calibration.json", name)
	}

	got, err := LoadCalibration(name)
	if err != nil {
		t.Fatalf("LoadCalibration: %v", err)
	}
	if got != cal {
		t.Errorf("loaded calibration = %+v, want %+v", got, cal)
	}
}

func TestLoadCalibrationMissingFile(t *testing.T) {
	_, err := LoadCalibration("no_such_calibration.json")
	if err == nil {
		t.Fatal("want error for missing file")
	}
}
