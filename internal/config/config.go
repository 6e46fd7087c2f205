package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/finger_tracker/internal/mux"
)

// Pose source kinds accepted by SOURCE.
const (
	SourceMock   = "mock"
	SourceMQTT   = "mqtt"
	SourceSerial = "serial"
)

// Config holds all application configuration values.
type Config struct {
	// OSC output
	OSCHost      string
	OSCPort      int
	TickInterval int // milliseconds
	Mode         mux.Mode

	// Calibration
	OffsetsFile        string
	RangesFile         string
	CalibrationProfile string // TOML profile, replaces the two files when set

	// Pose source
	Source       string
	SampleMaxAge int // milliseconds, 0 disables expiry

	// MQTT
	MQTTBroker     string
	MQTTClientID   string
	TopicHandLeft  string
	TopicHandRight string
	TopicFrame     string

	// Serial glove
	SerialPort     string
	SerialBaudRate int

	// Timing
	ConsoleLogInterval int // milliseconds

	// Web Server
	WebServerPort int

	// Display
	DisplayEnabled        bool
	DisplayUpdateInterval int // milliseconds

	// Monitor
	MonitorListen string
}

// globalConfig is only reachable through InitGlobal and Get; configOnce
// makes InitGlobal run once and configMu guards readers against it.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		OSCHost:               "127.0.0.1",
		OSCPort:               9000,
		TickInterval:          33,
		Mode:                  mux.DefaultMode,
		OffsetsFile:           "num.txt",
		RangesFile:            "muscle.txt",
		Source:                SourceMock,
		SampleMaxAge:          500,
		MQTTBroker:            "tcp://localhost:1883",
		MQTTClientID:          "finger-tracker",
		TopicHandLeft:         "fingertracker/hand/left",
		TopicHandRight:        "fingertracker/hand/right",
		SerialBaudRate:        115200,
		ConsoleLogInterval:    500,
		WebServerPort:         8080,
		DisplayUpdateInterval: 200,
		MonitorListen:         ":9000",
	}
}

// Load reads the configuration file on top of Default.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
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

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyArgs overrides the output settings with positional arguments:
// host, port, tick interval in milliseconds and mode selector. Missing
// trailing arguments keep their current value; extra ones are ignored.
func (c *Config) ApplyArgs(args []string) error {
	keys := []string{"OSC_HOST", "OSC_PORT", "TICK_INTERVAL_MS", "MODE"}
	for i, arg := range args {
		if i == len(keys) {
			break
		}
		if err := c.setValue(keys[i], arg); err != nil {
			return fmt.Errorf("argument %d: %w", i+1, err)
		}
	}
	return c.validate()
}

// Interval returns TickInterval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.TickInterval) * time.Millisecond
}

// MaxAge returns SampleMaxAge as a duration.
func (c *Config) MaxAge() time.Duration {
	return time.Duration(c.SampleMaxAge) * time.Millisecond
}

func atoi(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// OSC output
	case "OSC_HOST":
		c.OSCHost = value
	case "OSC_PORT":
		c.OSCPort, err = atoi(key, value)
	case "TICK_INTERVAL_MS":
		c.TickInterval, err = atoi(key, value)
	case "MODE":
		c.Mode, err = mux.ParseMode(value)
		if err != nil {
			err = fmt.Errorf("invalid MODE: %w", err)
		}

	// Calibration
	case "OFFSETS_FILE":
		c.OffsetsFile = value
	case "RANGES_FILE":
		c.RangesFile = value
	case "CALIBRATION_PROFILE":
		c.CalibrationProfile = value

	// Pose source
	case "SOURCE":
		c.Source = strings.ToLower(value)
	case "SAMPLE_MAX_AGE_MS":
		c.SampleMaxAge, err = atoi(key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_HAND_LEFT":
		c.TopicHandLeft = value
	case "TOPIC_HAND_RIGHT":
		c.TopicHandRight = value
	case "TOPIC_FRAME":
		c.TopicFrame = value

	// Serial glove
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = atoi(key, value)

	// Timing
	case "CONSOLE_LOG_INTERVAL":
		c.ConsoleLogInterval, err = atoi(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = atoi(key, value)

	// Display
	case "DISPLAY_ENABLED":
		c.DisplayEnabled, err = strconv.ParseBool(value)
		if err != nil {
			err = fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = atoi(key, value)

	// Monitor
	case "MONITOR_LISTEN":
		c.MonitorListen = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks ranges and the settings the selected source needs.
func (c *Config) validate() error {
	if c.OSCHost == "" {
		return fmt.Errorf("OSC_HOST is required")
	}
	if c.OSCPort <= 0 || c.OSCPort > 65535 {
		return fmt.Errorf("OSC_PORT must be 1-65535, got %d", c.OSCPort)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL_MS must be positive, got %d", c.TickInterval)
	}
	if c.SampleMaxAge < 0 {
		return fmt.Errorf("SAMPLE_MAX_AGE_MS must not be negative, got %d", c.SampleMaxAge)
	}
	if c.CalibrationProfile == "" && (c.OffsetsFile == "" || c.RangesFile == "") {
		return fmt.Errorf("OFFSETS_FILE and RANGES_FILE are required without CALIBRATION_PROFILE")
	}

	switch c.Source {
	case SourceMock:
	case SourceMQTT:
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required for SOURCE=mqtt")
		}
		if c.TopicHandLeft == "" || c.TopicHandRight == "" {
			return fmt.Errorf("TOPIC_HAND_LEFT and TOPIC_HAND_RIGHT are required for SOURCE=mqtt")
		}
	case SourceSerial:
		if c.SerialPort == "" {
			return fmt.Errorf("SERIAL_PORT is required for SOURCE=serial")
		}
		if c.SerialBaudRate <= 0 {
			return fmt.Errorf("SERIAL_BAUD_RATE is required for SOURCE=serial")
		}
	default:
		return fmt.Errorf("SOURCE must be mock, mqtt or serial, got %q", c.Source)
	}

	if c.TopicFrame != "" && c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required when TOPIC_FRAME is set")
	}
	if c.ConsoleLogInterval <= 0 {
		return fmt.Errorf("CONSOLE_LOG_INTERVAL must be positive, got %d", c.ConsoleLogInterval)
	}
	if c.DisplayEnabled && c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", c.DisplayUpdateInterval)
	}
	return nil
}

// InitGlobal initializes the global configuration from file, or from
// Default when configPath is empty. Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		if configPath == "" {
			globalConfig = Default()
			return
		}
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

// DisplayInterval returns DisplayUpdateInterval as a duration.
func (c *Config) DisplayInterval() time.Duration {
	return time.Duration(c.DisplayUpdateInterval) * time.Millisecond
}
