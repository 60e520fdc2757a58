package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDDisplay  string

	// Topics
	TopicMag     string
	TopicHeading string

	// Magnetometer hardware
	MagI2CBus  string
	MagI2CAddr uint16

	// Output data rate in Hz: 10, 20, 50 or 100
	MagODRHz int
	// Sensitivity in gauss per count; 0 means the driver default
	MagSensitivity float64
	// Additional bus transaction attempts on failure (0-10)
	MagBusRetries int

	// Path to a stored calibration JSON; empty means identity
	CalibrationFile string

	// Timing
	MagSampleInterval int // milliseconds

	// Web server
	WebServerPort int

	// OLED display
	DisplayContent        string // "heading" or "mag_raw"
	DisplayUpdateInterval int    // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock for initialization,
//     read lock for Get() allows multiple concurrent readers.
//
// External code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_MAG":
		c.TopicMag = value
	case "TOPIC_HEADING":
		c.TopicHeading = value

	// Magnetometer hardware
	case "MAG_I2C_BUS":
		c.MagI2CBus = value
	case "MAG_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid MAG_I2C_ADDR %q: %w", value, err)
		}
		c.MagI2CAddr = uint16(addr)
	case "MAG_ODR_HZ":
		odr, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MAG_ODR_HZ %q: %w", value, err)
		}
		switch odr {
		case 10, 20, 50, 100:
			c.MagODRHz = odr
		default:
			return fmt.Errorf("MAG_ODR_HZ must be 10, 20, 50 or 100, got %d", odr)
		}
	case "MAG_SENSITIVITY":
		sens, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MAG_SENSITIVITY %q: %w", value, err)
		}
		if sens <= 0 {
			return fmt.Errorf("MAG_SENSITIVITY must be positive, got %v", sens)
		}
		c.MagSensitivity = sens
	case "MAG_BUS_RETRIES":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MAG_BUS_RETRIES %q: %w", value, err)
		}
		if retries < 0 || retries > 10 {
			return fmt.Errorf("MAG_BUS_RETRIES must be 0-10, got %d", retries)
		}
		c.MagBusRetries = retries

	case "CALIBRATION_FILE":
		c.CalibrationFile = value

	// Timing
	case "MAG_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MAG_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.MagSampleInterval = interval

	// OLED display
	case "DISPLAY_CONTENT":
		switch value {
		case "heading", "mag_raw":
			c.DisplayContent = value
		default:
			return fmt.Errorf("DISPLAY_CONTENT must be heading or mag_raw, got %q", value)
		}
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	// Web server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.MagI2CBus == "" {
		return fmt.Errorf("MAG_I2C_BUS is required")
	}
	if c.MagSampleInterval == 0 {
		return fmt.Errorf("MAG_SAMPLE_INTERVAL is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
