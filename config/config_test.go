package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowgroup/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flowgroup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, int64(10000), cfg.BackPressureObjectThreshold)
	assert.Equal(t, int64(1<<30), cfg.BackPressureDataSizeThreshold)
	assert.Equal(t, time.Duration(0), cfg.FlowFileExpiration)
	assert.Equal(t, time.Minute, cfg.RegistryPollInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
back_pressure_object_threshold: 500
flowfile_expiration: 30s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(500), cfg.BackPressureObjectThreshold)
	assert.Equal(t, 30*time.Second, cfg.FlowFileExpiration)
	// unset fields keep the built-in defaults
	assert.Equal(t, int64(1<<30), cfg.BackPressureDataSizeThreshold)
	assert.Equal(t, time.Minute, cfg.RegistryPollInterval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "back_pressure_object_threshold: [not a number")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, "back_pressure_object_threshold: -1")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Defaults)
		ok     bool
	}{
		{"defaults", func(*Defaults) {}, true},
		{"negative object threshold", func(d *Defaults) { d.BackPressureObjectThreshold = -1 }, false},
		{"negative data size threshold", func(d *Defaults) { d.BackPressureDataSizeThreshold = -5 }, false},
		{"negative expiration", func(d *Defaults) { d.FlowFileExpiration = -time.Second }, false},
		{"zero poll interval", func(d *Defaults) { d.RegistryPollInterval = 0 }, false},
		{"zero expiration allowed", func(d *Defaults) { d.FlowFileExpiration = 0 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			}
		})
	}
}
