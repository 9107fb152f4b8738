/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package clientpool

import (
	"errors"
	"time"

	"github.com/chorushub/go-clipkit/config"
)

const cfgDefaultKeyPrefix = "clientPool"

const (
	cfgKeyMaxSize         = "maxSize"
	cfgKeyTTL             = "ttl"
	cfgKeyCleanupInterval = "cleanupInterval"
	cfgKeyExpiryMargin    = "expiryMargin"
)

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// Config represents a set of configuration parameters for the client pool.
type Config struct {
	// MaxSize bounds the number of pooled entries.
	MaxSize int `mapstructure:"maxSize" yaml:"maxSize" json:"maxSize"`

	// TTL is the maximum idle time of a pooled entry.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`

	// CleanupInterval is the interval between background cleanup passes.
	CleanupInterval time.Duration `mapstructure:"cleanupInterval" yaml:"cleanupInterval" json:"cleanupInterval"`

	// ExpiryMargin is a safety margin for the token expiry check.
	ExpiryMargin time.Duration `mapstructure:"expiryMargin" yaml:"expiryMargin" json:"expiryMargin"`

	keyPrefix string
}

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix:       cfgDefaultKeyPrefix,
		MaxSize:         DefaultMaxSize,
		TTL:             DefaultTTL,
		CleanupInterval: DefaultCleanupInterval,
		ExpiryMargin:    DefaultExpiryMargin,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the client pool in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyMaxSize, DefaultMaxSize)
	dp.SetDefault(cfgKeyTTL, DefaultTTL)
	dp.SetDefault(cfgKeyCleanupInterval, DefaultCleanupInterval)
	dp.SetDefault(cfgKeyExpiryMargin, DefaultExpiryMargin)
}

// Set sets client pool configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	maxSize, err := dp.GetInt(cfgKeyMaxSize)
	if err != nil {
		return err
	}
	if maxSize <= 0 {
		return dp.WrapKeyErr(cfgKeyMaxSize, errors.New("must be positive"))
	}
	c.MaxSize = maxSize

	if c.TTL, err = dp.GetDuration(cfgKeyTTL); err != nil {
		return err
	}
	if c.TTL <= 0 {
		return dp.WrapKeyErr(cfgKeyTTL, errors.New("must be positive"))
	}

	if c.CleanupInterval, err = dp.GetDuration(cfgKeyCleanupInterval); err != nil {
		return err
	}
	if c.CleanupInterval <= 0 {
		return dp.WrapKeyErr(cfgKeyCleanupInterval, errors.New("must be positive"))
	}

	if c.ExpiryMargin, err = dp.GetDuration(cfgKeyExpiryMargin); err != nil {
		return err
	}
	if c.ExpiryMargin < 0 {
		return dp.WrapKeyErr(cfgKeyExpiryMargin, errors.New("must not be negative"))
	}

	return nil
}

// PoolOpts returns pool options built from the configuration.
func (c *Config) PoolOpts() PoolOpts {
	return PoolOpts{
		MaxSize:      c.MaxSize,
		TTL:          c.TTL,
		ExpiryMargin: c.ExpiryMargin,
	}
}
