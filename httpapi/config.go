/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package httpapi

import (
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/chorushub/go-clipkit/config"
)

const cfgDefaultKeyPrefix = "server"

const (
	cfgKeyAddress          = "address"
	cfgKeyTimeoutsWrite    = "timeouts.write"
	cfgKeyTimeoutsRead     = "timeouts.read"
	cfgKeyTimeoutsIdle     = "timeouts.idle"
	cfgKeyTimeoutsShutdown = "timeouts.shutdown"
	cfgKeyUploadRateLimit  = "limits.uploadRate"
	cfgKeyUploadRateBurst  = "limits.uploadBurst"
)

// Default configuration values for the HTTP API server.
const (
	DefaultServerAddress          = ":8080"
	DefaultServerTimeoutsWrite    = time.Minute
	DefaultServerTimeoutsRead     = time.Second * 15
	DefaultServerTimeoutsIdle     = time.Minute
	DefaultServerTimeoutsShutdown = time.Second * 5
	DefaultUploadRateLimit        = 1.0
	DefaultUploadRateBurst        = 3
)

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// TimeoutsConfig represents a set of timeouts for the HTTP API server.
type TimeoutsConfig struct {
	Write    time.Duration `mapstructure:"write" yaml:"write" json:"write"`
	Read     time.Duration `mapstructure:"read" yaml:"read" json:"read"`
	Idle     time.Duration `mapstructure:"idle" yaml:"idle" json:"idle"`
	Shutdown time.Duration `mapstructure:"shutdown" yaml:"shutdown" json:"shutdown"`
}

// LimitsConfig represents a set of limits for the HTTP API server.
type LimitsConfig struct {
	// UploadRate is the per-caller upload rate limit in requests per second. Zero disables the limit.
	UploadRate float64 `mapstructure:"uploadRate" yaml:"uploadRate" json:"uploadRate"`

	// UploadBurst is the burst for the upload rate limit.
	UploadBurst int `mapstructure:"uploadBurst" yaml:"uploadBurst" json:"uploadBurst"`
}

// Config represents a set of configuration parameters for the HTTP API server.
type Config struct {
	Address  string         `mapstructure:"address" yaml:"address" json:"address"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`
	Limits   LimitsConfig   `mapstructure:"limits" yaml:"limits" json:"limits"`

	keyPrefix string
}

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix: cfgDefaultKeyPrefix,
		Address:   DefaultServerAddress,
		Timeouts: TimeoutsConfig{
			Write:    DefaultServerTimeoutsWrite,
			Read:     DefaultServerTimeoutsRead,
			Idle:     DefaultServerTimeoutsIdle,
			Shutdown: DefaultServerTimeoutsShutdown,
		},
		Limits: LimitsConfig{
			UploadRate:  DefaultUploadRateLimit,
			UploadBurst: DefaultUploadRateBurst,
		},
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the HTTP API server in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyAddress, DefaultServerAddress)
	dp.SetDefault(cfgKeyTimeoutsWrite, DefaultServerTimeoutsWrite)
	dp.SetDefault(cfgKeyTimeoutsRead, DefaultServerTimeoutsRead)
	dp.SetDefault(cfgKeyTimeoutsIdle, DefaultServerTimeoutsIdle)
	dp.SetDefault(cfgKeyTimeoutsShutdown, DefaultServerTimeoutsShutdown)
	dp.SetDefault(cfgKeyUploadRateLimit, DefaultUploadRateLimit)
	dp.SetDefault(cfgKeyUploadRateBurst, DefaultUploadRateBurst)
}

// Set sets HTTP API server configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	address, err := dp.GetString(cfgKeyAddress)
	if err != nil {
		return err
	}
	if address == "" {
		return dp.WrapKeyErr(cfgKeyAddress, errors.New("cannot be empty"))
	}
	c.Address = address

	if c.Timeouts.Write, err = dp.GetDuration(cfgKeyTimeoutsWrite); err != nil {
		return err
	}
	if c.Timeouts.Read, err = dp.GetDuration(cfgKeyTimeoutsRead); err != nil {
		return err
	}
	if c.Timeouts.Idle, err = dp.GetDuration(cfgKeyTimeoutsIdle); err != nil {
		return err
	}
	if c.Timeouts.Shutdown, err = dp.GetDuration(cfgKeyTimeoutsShutdown); err != nil {
		return err
	}

	uploadRate, err := dp.GetFloat64(cfgKeyUploadRateLimit)
	if err != nil {
		return err
	}
	if uploadRate < 0 {
		return dp.WrapKeyErr(cfgKeyUploadRateLimit, errors.New("cannot be negative"))
	}
	c.Limits.UploadRate = uploadRate

	uploadBurst, err := dp.GetInt(cfgKeyUploadRateBurst)
	if err != nil {
		return err
	}
	if uploadBurst < 0 {
		return dp.WrapKeyErr(cfgKeyUploadRateBurst, errors.New("cannot be negative"))
	}
	c.Limits.UploadBurst = uploadBurst

	return nil
}

// UploadRateLimit returns the configured upload rate limit as a rate.Limit.
func (c *Config) UploadRateLimit() rate.Limit {
	return rate.Limit(c.Limits.UploadRate)
}
