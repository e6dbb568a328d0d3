// Package config loads the engine defaults that process groups fall back to
// when a group and all of its ancestors leave a setting unset: backpressure
// thresholds, FlowFile expiration and the registry poll interval.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/flowgroup/errors"
)

// Defaults holds the system-wide fallback values for group settings
type Defaults struct {
	// BackPressureObjectThreshold is the queued FlowFile count at which a
	// connection applies backpressure
	BackPressureObjectThreshold int64 `yaml:"back_pressure_object_threshold"`
	// BackPressureDataSizeThreshold is the queued byte count at which a
	// connection applies backpressure
	BackPressureDataSizeThreshold int64 `yaml:"back_pressure_data_size_threshold"`
	// FlowFileExpiration is the age at which queued FlowFiles are dropped;
	// zero disables expiration
	FlowFileExpiration time.Duration `yaml:"flowfile_expiration"`
	// RegistryPollInterval is how often the background poller checks the
	// flow registry for newer versions
	RegistryPollInterval time.Duration `yaml:"registry_poll_interval"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Defaults {
	return Defaults{
		BackPressureObjectThreshold:   10000,
		BackPressureDataSizeThreshold: 1 << 30, // 1 GB
		FlowFileExpiration:            0,
		RegistryPollInterval:          time.Minute,
	}
}

// rawDefaults is the file form of Defaults: durations are strings in Go
// duration syntax, and absent fields stay nil so built-in defaults apply.
type rawDefaults struct {
	BackPressureObjectThreshold   *int64  `yaml:"back_pressure_object_threshold"`
	BackPressureDataSizeThreshold *int64  `yaml:"back_pressure_data_size_threshold"`
	FlowFileExpiration            *string `yaml:"flowfile_expiration"`
	RegistryPollInterval          *string `yaml:"registry_poll_interval"`
}

// Load reads defaults from a YAML file, filling unset fields from the
// built-in defaults
func Load(path string) (Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults{}, errors.WrapInvalid(err, "config", "Load", "read config file")
	}

	var raw rawDefaults
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Defaults{}, errors.WrapInvalid(err, "config", "Load", "parse yaml")
	}

	cfg := DefaultConfig()
	if raw.BackPressureObjectThreshold != nil {
		cfg.BackPressureObjectThreshold = *raw.BackPressureObjectThreshold
	}
	if raw.BackPressureDataSizeThreshold != nil {
		cfg.BackPressureDataSizeThreshold = *raw.BackPressureDataSizeThreshold
	}
	if raw.FlowFileExpiration != nil {
		cfg.FlowFileExpiration, err = time.ParseDuration(*raw.FlowFileExpiration)
		if err != nil {
			return Defaults{}, errors.WrapInvalid(err, "config", "Load", "parse flowfile_expiration")
		}
	}
	if raw.RegistryPollInterval != nil {
		cfg.RegistryPollInterval, err = time.ParseDuration(*raw.RegistryPollInterval)
		if err != nil {
			return Defaults{}, errors.WrapInvalid(err, "config", "Load", "parse registry_poll_interval")
		}
	}

	if err := cfg.Validate(); err != nil {
		return Defaults{}, err
	}
	return cfg, nil
}

// Validate rejects negative thresholds and intervals
func (d Defaults) Validate() error {
	if d.BackPressureObjectThreshold < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("back_pressure_object_threshold %d: %w", d.BackPressureObjectThreshold, errors.ErrInvalidConfig),
			"config", "Validate", "threshold validation")
	}
	if d.BackPressureDataSizeThreshold < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("back_pressure_data_size_threshold %d: %w", d.BackPressureDataSizeThreshold, errors.ErrInvalidConfig),
			"config", "Validate", "threshold validation")
	}
	if d.FlowFileExpiration < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("flowfile_expiration %s: %w", d.FlowFileExpiration, errors.ErrInvalidConfig),
			"config", "Validate", "expiration validation")
	}
	if d.RegistryPollInterval <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("registry_poll_interval %s: %w", d.RegistryPollInterval, errors.ErrInvalidConfig),
			"config", "Validate", "poll interval validation")
	}
	return nil
}
