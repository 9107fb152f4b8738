/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package clipstore

import (
	"errors"

	"github.com/chorushub/go-clipkit/config"
)

const cfgDefaultKeyPrefix = "clipStore"

const (
	cfgKeyDir          = "dir"
	cfgKeyMaxAudioSize = "maxAudioSize"
)

// DefaultMaxAudioSize is a default limit for the size of one audio payload.
const DefaultMaxAudioSize = config.ByteSize(1024 * 1024 * 10)

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// Config represents a set of configuration parameters for the clip store.
type Config struct {
	// Dir is a directory where the catalog file and audio payloads are stored.
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`

	// MaxAudioSize limits the size of one audio payload.
	MaxAudioSize config.ByteSize `mapstructure:"maxAudioSize" yaml:"maxAudioSize" json:"maxAudioSize"`

	keyPrefix string
}

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix:    cfgDefaultKeyPrefix,
		Dir:          "data",
		MaxAudioSize: DefaultMaxAudioSize,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the clip store in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyDir, "data")
	dp.SetDefault(cfgKeyMaxAudioSize, uint64(DefaultMaxAudioSize))
}

// Set sets clip store configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	dir, err := dp.GetString(cfgKeyDir)
	if err != nil {
		return err
	}
	if dir == "" {
		return dp.WrapKeyErr(cfgKeyDir, errors.New("cannot be empty"))
	}
	c.Dir = dir

	maxAudioSize, err := dp.GetSizeInBytes(cfgKeyMaxAudioSize)
	if err != nil {
		return err
	}
	if maxAudioSize == 0 {
		return dp.WrapKeyErr(cfgKeyMaxAudioSize, errors.New("must be positive"))
	}
	c.MaxAudioSize = config.ByteSize(maxAudioSize)

	return nil
}
