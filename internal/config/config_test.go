package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mag_config.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
# MQTT
MQTT_BROKER = tcp://localhost:1883
MQTT_CLIENT_ID_PRODUCER = mag-producer
TOPIC_MAG = mag/raw
TOPIC_HEADING = mag/heading

MAG_I2C_BUS = 1
MAG_I2C_ADDR = 0x1E
MAG_ODR_HZ = 100
MAG_SENSITIVITY = 0.0015
MAG_BUS_RETRIES = 3
MAG_SAMPLE_INTERVAL = 100
CALIBRATION_FILE = ./mag_calibration.json
WEB_SERVER_PORT = 8080

DISPLAY_CONTENT = heading
DISPLAY_UPDATE_INTERVAL = 200
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTTBroker != "tcp://localhost:1883" {
		t.Errorf("MQTTBroker = %q", cfg.MQTTBroker)
	}
	if cfg.MagI2CAddr != 0x1E {
		t.Errorf("MagI2CAddr = 0x%02X, want 0x1E", cfg.MagI2CAddr)
	}
	if cfg.MagODRHz != 100 {
		t.Errorf("MagODRHz = %d, want 100", cfg.MagODRHz)
	}
	if cfg.MagSensitivity != 0.0015 {
		t.Errorf("MagSensitivity = %v, want 0.0015", cfg.MagSensitivity)
	}
	if cfg.MagBusRetries != 3 {
		t.Errorf("MagBusRetries = %d, want 3", cfg.MagBusRetries)
	}
	if cfg.MagSampleInterval != 100 {
		t.Errorf("MagSampleInterval = %d, want 100", cfg.MagSampleInterval)
	}
	if cfg.CalibrationFile != "./mag_calibration.json" {
		t.Errorf("CalibrationFile = %q", cfg.CalibrationFile)
	}
	if cfg.DisplayContent != "heading" {
		t.Errorf("DisplayContent = %q, want heading", cfg.DisplayContent)
	}
	if cfg.DisplayUpdateInterval != 200 {
		t.Errorf("DisplayUpdateInterval = %d, want 200", cfg.DisplayUpdateInterval)
	}
}

func TestLoadRejectsBadDisplayContent(t *testing.T) {
	path := writeConfig(t, "DISPLAY_CONTENT=compass_rose\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "DISPLAY_CONTENT") {
		t.Fatalf("want display content error, got %v", err)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER=tcp://localhost:1883\nBOGUS_KEY=1\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "BOGUS_KEY") {
		t.Fatalf("want unknown-key error, got %v", err)
	}
}

func TestLoadRejectsBadODR(t *testing.T) {
	path := writeConfig(t, "MAG_ODR_HZ=42\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "MAG_ODR_HZ") {
		t.Fatalf("want ODR error, got %v", err)
	}
}

func TestLoadRequiresBrokerAndBus(t *testing.T) {
	path := writeConfig(t, "MAG_I2C_BUS=1\nMAG_SAMPLE_INTERVAL=100\n")
	if _, err := Load(path); err == nil {
		t.Fatal("want missing MQTT_BROKER error")
	}

	path = writeConfig(t, "MQTT_BROKER=tcp://localhost:1883\nMAG_SAMPLE_INTERVAL=100\n")
	if _, err := Load(path); err == nil {
		t.Fatal("want missing MAG_I2C_BUS error")
	}
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER tcp://localhost:1883\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("want malformed-line error, got %v", err)
	}
}
