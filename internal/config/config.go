// Package config loads the dashboard configuration from an optional YAML
// file, filling defaults for everything left out.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/motodash/internal/gpio"
)

type Config struct {
	GPIO     GPIOConfig     `yaml:"gpio"`
	Display  DisplayConfig  `yaml:"display"`
	GPS      GPSConfig      `yaml:"gps"`
	Timing   TimingConfig   `yaml:"timing"`
	History  HistoryConfig  `yaml:"history"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	HTTP     HTTPConfig     `yaml:"http"`
	Settings SettingsConfig `yaml:"settings"`
}

type GPIOConfig struct {
	Chip      string `yaml:"chip"`
	RightUp   int    `yaml:"right_up"`
	RightDown int    `yaml:"right_down"`
	LeftUp    int    `yaml:"left_up"`
	LeftDown  int    `yaml:"left_down"`
	RPM       int    `yaml:"rpm"`
}

type DisplayConfig struct {
	SPIPort  string `yaml:"spi_port"`
	DCPin    string `yaml:"dc_pin"`
	ResetPin string `yaml:"reset_pin"`
}

type GPSConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type TimingConfig struct {
	Poll           time.Duration `yaml:"poll"`
	Debounce       time.Duration `yaml:"debounce"`
	Sample         time.Duration `yaml:"sample"`
	RecordingDelay time.Duration `yaml:"recording_delay"`
	Splash         time.Duration `yaml:"splash"`
	Telemetry      time.Duration `yaml:"telemetry"`
	Heartbeat      time.Duration `yaml:"heartbeat"`
	RPMStale       time.Duration `yaml:"rpm_stale"`
	UTCOffset      time.Duration `yaml:"utc_offset"`
}

type HistoryConfig struct {
	Capacity int `yaml:"capacity"`
}

type MQTTConfig struct {
	Broker     string `yaml:"broker"`
	WSBroker   string `yaml:"ws_broker"`
	BufferSize int    `yaml:"buffer_size"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type SettingsConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		GPIO: GPIOConfig{
			Chip:      "gpiochip0",
			RightUp:   gpio.DefaultPinRightUp,
			RightDown: gpio.DefaultPinRightDown,
			LeftUp:    gpio.DefaultPinLeftUp,
			LeftDown:  gpio.DefaultPinLeftDown,
			RPM:       gpio.DefaultPinRPM,
		},
		Display: DisplayConfig{
			SPIPort:  "/dev/spidev0.0",
			DCPin:    "GPIO24",
			ResetPin: "GPIO25",
		},
		GPS: GPSConfig{Baud: 9600},
		Timing: TimingConfig{
			Poll:           5 * time.Millisecond,
			Debounce:       20 * time.Millisecond,
			Sample:         time.Second,
			RecordingDelay: 20 * time.Second,
			Splash:         3 * time.Second,
			Telemetry:      10 * time.Second,
			Heartbeat:      15 * time.Minute,
			RPMStale:       time.Second,
			UTCOffset:      2 * time.Hour,
		},
		History: HistoryConfig{Capacity: 10000},
		MQTT: MQTTConfig{
			Broker:     "tcp://192.168.1.200:1883",
			BufferSize: 100,
		},
		HTTP:     HTTPConfig{Addr: ":80"},
		Settings: SettingsConfig{Path: "/var/lib/motodash/settings.bin"},
	}
}

// Load reads and validates the file at path. An empty path yields the
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults and validates the result. Keys that
// are present win, including explicit zeros such as `telemetry: 0s`.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	seen := map[int]string{}
	for _, p := range []struct {
		name string
		pin  int
	}{
		{"gpio.right_up", c.GPIO.RightUp},
		{"gpio.right_down", c.GPIO.RightDown},
		{"gpio.left_up", c.GPIO.LeftUp},
		{"gpio.left_down", c.GPIO.LeftDown},
		{"gpio.rpm", c.GPIO.RPM},
	} {
		if p.pin < 0 {
			return fmt.Errorf("%s must not be negative", p.name)
		}
		if other, ok := seen[p.pin]; ok {
			return fmt.Errorf("%s and %s share line %d", other, p.name, p.pin)
		}
		seen[p.pin] = p.name
	}

	if c.GPS.Baud <= 0 {
		return fmt.Errorf("gps.baud must be positive")
	}
	if c.Timing.Poll <= 0 {
		return fmt.Errorf("timing.poll must be positive")
	}
	if c.Timing.Sample <= 0 {
		return fmt.Errorf("timing.sample must be positive")
	}
	if c.Timing.RPMStale <= 0 {
		return fmt.Errorf("timing.rpm_stale must be positive")
	}
	if c.Timing.RecordingDelay < 0 || c.Timing.Splash < 0 {
		return fmt.Errorf("timing.recording_delay and timing.splash must not be negative")
	}
	if c.Timing.Debounce < c.Timing.Poll {
		return fmt.Errorf("timing.debounce (%v) must be at least timing.poll (%v)", c.Timing.Debounce, c.Timing.Poll)
	}
	if c.Timing.Telemetry < 0 {
		return fmt.Errorf("timing.telemetry must not be negative")
	}
	if c.Timing.Heartbeat < 0 {
		return fmt.Errorf("timing.heartbeat must not be negative")
	}
	if c.Timing.UTCOffset < -14*time.Hour || c.Timing.UTCOffset > 14*time.Hour {
		return fmt.Errorf("timing.utc_offset %v out of range", c.Timing.UTCOffset)
	}
	if c.History.Capacity < 0 {
		return fmt.Errorf("history.capacity must not be negative")
	}
	if c.MQTT.BufferSize < 0 {
		return fmt.Errorf("mqtt.buffer_size must not be negative")
	}
	return nil
}

// Pins returns the button wiring.
func (c Config) Pins() gpio.Pins {
	var p gpio.Pins
	p[gpio.RightUp] = c.GPIO.RightUp
	p[gpio.RightDown] = c.GPIO.RightDown
	p[gpio.LeftUp] = c.GPIO.LeftUp
	p[gpio.LeftDown] = c.GPIO.LeftDown
	return p
}
