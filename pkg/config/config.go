// Package config loads and validates catmuxd's YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/kb9vty/catmux/pkg/catproto"
)

// Config is catmuxd's full configuration tree.
type Config struct {
	Radios []RadioConfig `yaml:"configured_radios"`

	VirtualRadios []VirtualRadioConfig `yaml:"virtual_radios"`

	Amplifier AmplifierConfig `yaml:"amplifier"`

	Switching struct {
		Mode        string `yaml:"switching_mode"` // manual, frequency_triggered, automatic
		LockoutMs   int    `yaml:"lockout_ms"`
	} `yaml:"switching"`

	Translation struct {
		FrequencyPrecisionHz uint64 `yaml:"frequency_precision_hz"`
	} `yaml:"translation"`

	API struct {
		BindAddress string `yaml:"bind_address"`
		Port        int    `yaml:"port"`
	} `yaml:"api"`

	Logging struct {
		Level      string `yaml:"level"` // debug, info, warn, error
		File       string `yaml:"file"`
		MaxSize    int    `yaml:"max_size"`    // megabytes
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"` // days
		Compress   bool   `yaml:"compress"`
		Console    bool   `yaml:"console"`
		Structured bool   `yaml:"structured"`
		Verbose    int    `yaml:"verbose"` // 0=off, 1=debug, 2=trace (raw byte dumps)
	} `yaml:"logging"`

	Scanner struct {
		AutoScan          bool `yaml:"auto_scan"`
		ProbeTimeoutMs     int  `yaml:"probe_timeout_ms"`
		InterProbeDelayMs  int  `yaml:"inter_probe_delay_ms"`
	} `yaml:"scanner"`

	Storage struct {
		DatabasePath       string `yaml:"database_path"`
		TrafficHistorySize int    `yaml:"traffic_history_size"`
	} `yaml:"storage"`

	DiagnosticLevel string `yaml:"diagnostic_level"`
}

// RadioConfig describes one real, serial-attached radio entry in the
// persisted roster.
type RadioConfig struct {
	DisplayName string `yaml:"display_name"`
	PortName    string `yaml:"port_name"`
	Protocol    string `yaml:"protocol"`
	BaudRate    int    `yaml:"baud_rate"`
	CivAddress  string `yaml:"civ_address,omitempty"`
}

// VirtualRadioConfig describes an in-process simulated radio, useful for
// demoing and testing the mux without real hardware attached.
type VirtualRadioConfig struct {
	DisplayName   string `yaml:"display_name"`
	Protocol      string `yaml:"protocol"`
	InitialFreqHz uint64 `yaml:"initial_frequency_hz"`
}

// AmplifierConfig describes the single amplifier endpoint.
type AmplifierConfig struct {
	Connection string `yaml:"connection"` // com, simulated
	Protocol   string `yaml:"protocol"`
	PortName   string `yaml:"port_name"`
	BaudRate   int    `yaml:"baud_rate"`
	CivAddress string `yaml:"civ_address,omitempty"`
}

// LoadConfig loads configuration from a YAML file, applying defaults to
// every field the file omits or sets to zero. A missing field is never
// fatal here, but a file that cannot be read or parsed as YAML (including a
// field whose value has the wrong type) is returned as an error. Validate
// reports what LoadConfig could not repair.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Switching.Mode == "" {
		cfg.Switching.Mode = "manual"
	}
	if cfg.Switching.LockoutMs == 0 {
		cfg.Switching.LockoutMs = 500
	}
	if cfg.Translation.FrequencyPrecisionHz == 0 {
		cfg.Translation.FrequencyPrecisionHz = 10
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 7373
	}
	if cfg.API.BindAddress == "" {
		cfg.API.BindAddress = "127.0.0.1"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSize == 0 {
		cfg.Logging.MaxSize = 100
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 5
	}
	if cfg.Logging.MaxAge == 0 {
		cfg.Logging.MaxAge = 30
	}
	if cfg.Scanner.ProbeTimeoutMs == 0 {
		cfg.Scanner.ProbeTimeoutMs = 500
	}
	if cfg.Scanner.InterProbeDelayMs == 0 {
		cfg.Scanner.InterProbeDelayMs = 100
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "catmux.db"
	}
	if cfg.Storage.TrafficHistorySize == 0 {
		cfg.Storage.TrafficHistorySize = 2000
	}
	if cfg.DiagnosticLevel == "" {
		cfg.DiagnosticLevel = "info"
	}
	for i := range cfg.Radios {
		if cfg.Radios[i].BaudRate == 0 {
			cfg.Radios[i].BaudRate = 9600
		}
	}
	if cfg.Amplifier.Connection != "" && cfg.Amplifier.BaudRate == 0 {
		cfg.Amplifier.BaudRate = 9600
	}
}

// Validate reports configuration problems applyDefaults cannot repair on
// its own: an unrecognized protocol name, a real radio with no port, or an
// amplifier connection type that isn't one of the two this system supports.
func (c *Config) Validate() error {
	for i, r := range c.Radios {
		if _, ok := ProtocolFromName(r.Protocol); !ok {
			return fmt.Errorf("configured_radios[%d]: unknown protocol %q", i, r.Protocol)
		}
		if r.PortName == "" {
			return fmt.Errorf("configured_radios[%d]: port_name is required", i)
		}
	}
	for i, v := range c.VirtualRadios {
		if _, ok := ProtocolFromName(v.Protocol); !ok {
			return fmt.Errorf("virtual_radios[%d]: unknown protocol %q", i, v.Protocol)
		}
	}
	switch c.Switching.Mode {
	case "manual", "frequency_triggered", "automatic":
	default:
		return fmt.Errorf("switching_mode: unrecognized value %q", c.Switching.Mode)
	}
	if c.Amplifier.Connection != "" {
		switch c.Amplifier.Connection {
		case "com", "simulated":
		default:
			return fmt.Errorf("amplifier.connection: unrecognized value %q", c.Amplifier.Connection)
		}
		if _, ok := ProtocolFromName(c.Amplifier.Protocol); !ok {
			return fmt.Errorf("amplifier.protocol: unknown protocol %q", c.Amplifier.Protocol)
		}
	}
	return nil
}

// ProtocolFromName maps a configuration string to the catproto protocol
// constant it names.
func ProtocolFromName(name string) (catproto.Protocol, bool) {
	switch name {
	case "kenwood":
		return catproto.Kenwood, true
	case "elecraft":
		return catproto.Elecraft, true
	case "icom_civ", "icom":
		return catproto.IcomCIV, true
	case "yaesu":
		return catproto.Yaesu, true
	case "yaesu_ascii":
		return catproto.YaesuAscii, true
	case "flex", "flexradio":
		return catproto.FlexRadio, true
	default:
		return 0, false
	}
}
