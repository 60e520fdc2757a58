// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
)

// CalibrationRecord is the JSON schema written after a calibration run.
// The correction engine itself persists nothing; storage is an outer
// concern of the CLI and web surfaces.
type CalibrationRecord struct {
	SchemaVersion int    `json:"schema_version"`
	CalibrationAt string `json:"calibration_at"` // RFC3339

	HardIron [3]float64 `json:"hard_iron"` // gauss
	SoftIron [3]float64 `json:"soft_iron"`

	SelfTest *lis2mdl.SelfTestResult `json:"self_test,omitempty"`
}

// NewCalibrationRecord stamps a calibration result for storage.
func NewCalibrationRecord(cal lis2mdl.Calibration, st *lis2mdl.SelfTestResult) CalibrationRecord {
	return CalibrationRecord{
		SchemaVersion: 1,
		CalibrationAt: time.Now().Format(time.RFC3339),
		HardIron:      cal.HardIron,
		SoftIron:      cal.SoftIron,
		SelfTest:      st,
	}
}

// WriteCalibrationRecord writes the record to a timestamped file in the
// current directory and returns the file name.
func WriteCalibrationRecord(rec CalibrationRecord) (string, error) {
	ts := time.Now().Format("2006-01-02T15-04-05Z07-00")
	name := fmt.Sprintf("%s_mag_calibration.json", ts)

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(name, b, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

// LoadCalibration reads a stored record and returns the correction it
// carries.
func LoadCalibration(path string) (lis2mdl.Calibration, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return lis2mdl.Calibration{}, fmt.Errorf("read calibration file: %w", err)
	}
	var rec CalibrationRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return lis2mdl.Calibration{}, fmt.Errorf("parse calibration file: %w", err)
	}
	return lis2mdl.Calibration{HardIron: rec.HardIron, SoftIron: rec.SoftIron}, nil
}
