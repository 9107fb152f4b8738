/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testServiceConfig struct {
	Name     string
	Interval time.Duration
	MaxSize  ByteSize

	keyPrefix string
}

func (c *testServiceConfig) KeyPrefix() string {
	return c.keyPrefix
}

func (c *testServiceConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("name", "unnamed")
	dp.SetDefault("interval", time.Second*30)
	dp.SetDefault("maxSize", 1024)
}

func (c *testServiceConfig) Set(dp DataProvider) error {
	var err error
	if c.Name, err = dp.GetString("name"); err != nil {
		return err
	}
	if c.Name == "" {
		return dp.WrapKeyErr("name", errors.New("cannot be empty"))
	}
	if c.Interval, err = dp.GetDuration("interval"); err != nil {
		return err
	}
	maxSize, err := dp.GetSizeInBytes("maxSize")
	if err != nil {
		return err
	}
	c.MaxSize = ByteSize(maxSize)
	return nil
}

func TestLoaderLoadFromReader(t *testing.T) {
	t.Run("values from yaml", func(t *testing.T) {
		cfgData := bytes.NewBufferString(`
serviceA:
  name: catalog
  interval: 45s
  maxSize: 2M
serviceB:
  name: uploads
`)
		cfgA := &testServiceConfig{keyPrefix: "serviceA"}
		cfgB := &testServiceConfig{keyPrefix: "serviceB"}
		require.NoError(t, NewDefaultLoader("").LoadFromReader(cfgData, DataTypeYAML, cfgA, cfgB))

		require.Equal(t, "catalog", cfgA.Name)
		require.Equal(t, time.Second*45, cfgA.Interval)
		require.Equal(t, ByteSize(1024*1024*2), cfgA.MaxSize)

		// Missing keys fall back to defaults.
		require.Equal(t, "uploads", cfgB.Name)
		require.Equal(t, time.Second*30, cfgB.Interval)
		require.Equal(t, ByteSize(1024), cfgB.MaxSize)
	})

	t.Run("validation error mentions full key", func(t *testing.T) {
		cfgData := bytes.NewBufferString(`
serviceA:
  name: ""
`)
		cfg := &testServiceConfig{keyPrefix: "serviceA"}
		err := NewDefaultLoader("").LoadFromReader(cfgData, DataTypeYAML, cfg)
		require.Error(t, err)
		require.Contains(t, err.Error(), "serviceA.name")
	})

	t.Run("values from json", func(t *testing.T) {
		cfgData := bytes.NewBufferString(`{"serviceA": {"name": "catalog", "interval": "1m"}}`)
		cfg := &testServiceConfig{keyPrefix: "serviceA"}
		require.NoError(t, NewDefaultLoader("").LoadFromReader(cfgData, DataTypeJSON, cfg))
		require.Equal(t, "catalog", cfg.Name)
		require.Equal(t, time.Minute, cfg.Interval)
	})
}

func TestLoaderLoadFromFile(t *testing.T) {
	t.Run("values from yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("serviceA:\n  name: catalog\n"), 0o600))

		cfg := &testServiceConfig{keyPrefix: "serviceA"}
		require.NoError(t, NewDefaultLoader("").LoadFromFile(path, DataTypeYAML, cfg))
		require.Equal(t, "catalog", cfg.Name)
	})

	t.Run("unreadable file", func(t *testing.T) {
		cfg := &testServiceConfig{keyPrefix: "serviceA"}
		err := NewDefaultLoader("").LoadFromFile(filepath.Join(t.TempDir(), "missing.yml"), DataTypeYAML, cfg)
		require.Error(t, err)
		require.Contains(t, err.Error(), "read configuration from file")
	})
}

type testAppConfig struct {
	ServiceA *testServiceConfig
	ServiceB *testServiceConfig
	Skipped  *testServiceConfig
}

func TestCallSetForFields(t *testing.T) {
	dp := NewViperAdapter()
	require.NoError(t, dp.SetFromReader(bytes.NewBufferString(`
serviceA:
  name: catalog
serviceB:
  name: uploads
`), DataTypeYAML))

	appCfg := &testAppConfig{
		ServiceA: &testServiceConfig{keyPrefix: "serviceA"},
		ServiceB: &testServiceConfig{keyPrefix: "serviceB"},
		Skipped:  nil, // nil fields should be ignored
	}
	CallSetProviderDefaultsForFields(appCfg, dp)
	require.NoError(t, CallSetForFields(appCfg, dp))
	require.Equal(t, "catalog", appCfg.ServiceA.Name)
	require.Equal(t, "uploads", appCfg.ServiceB.Name)
}
