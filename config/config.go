// Package config loads the bridge configuration from a KEY=VALUE file.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds all application configuration values.
type Config struct {
	ListenAddr string

	// Recordings
	RecordingsDir string
	IndexPath     string // empty disables the index
	GloveFit      string
	Notes         string

	// Serial
	DefaultBaud int
	ReadTimeout time.Duration
	Yield       time.Duration
	PausePoll   time.Duration
	SinkTimeout time.Duration

	// MQTT, disabled when MQTTBroker is empty
	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string

	LogLevel logrus.Level
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ListenAddr:    ":8989",
		RecordingsDir: "recordings",
		IndexPath:     "recordings/index.sqlite",
		GloveFit:      "standard",
		DefaultBaud:   115200,
		ReadTimeout:   100 * time.Millisecond,
		Yield:         time.Millisecond,
		PausePoll:     50 * time.Millisecond,
		SinkTimeout:   50 * time.Millisecond,
		MQTTClientID:  "glovelink",
		MQTTTopic:     "glove/samples",
		LogLevel:      logrus.InfoLevel,
	}
}

// Load reads the configuration file on top of the defaults. An empty path
// returns the defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

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

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) setValue(key, value string) error {
	switch key {
	case "LISTEN_ADDR":
		c.ListenAddr = value

	// Recordings
	case "RECORDINGS_DIR":
		c.RecordingsDir = value
	case "INDEX_PATH":
		c.IndexPath = value
	case "GLOVE_FIT":
		c.GloveFit = value
	case "NOTES":
		c.Notes = value

	// Serial
	case "DEFAULT_BAUD":
		baud, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DEFAULT_BAUD %q: %w", value, err)
		}
		c.DefaultBaud = baud
	case "READ_TIMEOUT_MS":
		return setMillis(&c.ReadTimeout, key, value)
	case "YIELD_MS":
		return setMillis(&c.Yield, key, value)
	case "PAUSE_POLL_MS":
		return setMillis(&c.PausePoll, key, value)
	case "SINK_TIMEOUT_MS":
		return setMillis(&c.SinkTimeout, key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_TOPIC":
		c.MQTTTopic = value

	case "LOG_LEVEL":
		lvl, err := logrus.ParseLevel(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_LEVEL %q: %w", value, err)
		}
		c.LogLevel = lvl

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setMillis(dst *time.Duration, key, value string) error {
	ms, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if ms <= 0 {
		return fmt.Errorf("%s must be positive, got %d", key, ms)
	}
	*dst = time.Duration(ms) * time.Millisecond
	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR is required")
	}
	if c.RecordingsDir == "" {
		return fmt.Errorf("RECORDINGS_DIR is required")
	}
	if c.DefaultBaud <= 0 {
		return fmt.Errorf("DEFAULT_BAUD must be positive, got %d", c.DefaultBaud)
	}
	if c.MQTTBroker != "" && c.MQTTTopic == "" {
		return fmt.Errorf("MQTT_TOPIC is required when MQTT_BROKER is set")
	}
	return nil
}
