/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chorushub/go-clipkit/config"
)

func loadLogConfig(t *testing.T, yamlData string) (*Config, error) {
	t.Helper()
	cfg := NewConfig()
	err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(yamlData), config.DataTypeYAML, cfg)
	return cfg, err
}

func TestConfigSet(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadLogConfig(t, "log: {}")
		require.NoError(t, err)
		require.Equal(t, LevelInfo, cfg.Level)
		require.Equal(t, FormatJSON, cfg.Format)
		require.Equal(t, OutputStdout, cfg.Output)
		require.Equal(t, config.ByteSize(DefaultFileRotationMaxSizeBytes), cfg.File.Rotation.MaxSize)
		require.Equal(t, DefaultFileRotationMaxBackups, cfg.File.Rotation.MaxBackups)
	})

	t.Run("values from yaml", func(t *testing.T) {
		cfg, err := loadLogConfig(t, `
log:
  level: warn
  format: text
  output: file
  nocolor: true
  file:
    path: /var/log/clipkitd.log
    rotation:
      maxSize: 100M
      maxBackups: 5
      maxAgeDays: 7
      compress: true
`)
		require.NoError(t, err)
		require.Equal(t, LevelWarn, cfg.Level)
		require.Equal(t, FormatText, cfg.Format)
		require.Equal(t, OutputFile, cfg.Output)
		require.True(t, cfg.NoColor)
		require.Equal(t, "/var/log/clipkitd.log", cfg.File.Path)
		require.Equal(t, config.ByteSize(1024*1024*100), cfg.File.Rotation.MaxSize)
		require.Equal(t, 5, cfg.File.Rotation.MaxBackups)
		require.Equal(t, 7, cfg.File.Rotation.MaxAgeDays)
		require.True(t, cfg.File.Rotation.Compress)
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := loadLogConfig(t, "log:\n  level: verbose")
		require.Error(t, err)
		require.Contains(t, err.Error(), "log.level")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := loadLogConfig(t, "log:\n  format: xml")
		require.Error(t, err)
		require.Contains(t, err.Error(), "log.format")
	})

	t.Run("file output requires path", func(t *testing.T) {
		_, err := loadLogConfig(t, "log:\n  output: file")
		require.Error(t, err)
		require.Contains(t, err.Error(), "log.file.path")
	})

	t.Run("rotation max size lower bound", func(t *testing.T) {
		_, err := loadLogConfig(t, "log:\n  file:\n    rotation:\n      maxSize: 100K")
		require.Error(t, err)
		require.Contains(t, err.Error(), "log.file.rotation.maxSize")
	})
}
