/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package requestqueue

import (
	"errors"
	"time"

	"github.com/chorushub/go-clipkit/config"
)

const cfgDefaultKeyPrefix = "requestQueue"

const (
	cfgKeyConcurrencyLimit = "concurrencyLimit"
	cfgKeyMaxBatchSize     = "maxBatchSize"
	cfgKeyBatchIdleDelay   = "batchIdleDelay"
)

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// Config represents a set of configuration parameters for the request queue.
type Config struct {
	// ConcurrencyLimit bounds the number of tasks in flight.
	ConcurrencyLimit int `mapstructure:"concurrencyLimit" yaml:"concurrencyLimit" json:"concurrencyLimit"`

	// MaxBatchSize is the number of tasks at which a pending batch is flushed immediately.
	MaxBatchSize int `mapstructure:"maxBatchSize" yaml:"maxBatchSize" json:"maxBatchSize"`

	// BatchIdleDelay is how long a pending batch waits for further arrivals before flushing.
	BatchIdleDelay time.Duration `mapstructure:"batchIdleDelay" yaml:"batchIdleDelay" json:"batchIdleDelay"`

	keyPrefix string
}

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		keyPrefix:        cfgDefaultKeyPrefix,
		ConcurrencyLimit: DefaultConcurrencyLimit,
		MaxBatchSize:     DefaultMaxBatchSize,
		BatchIdleDelay:   DefaultBatchIdleDelay,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the request queue in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyConcurrencyLimit, DefaultConcurrencyLimit)
	dp.SetDefault(cfgKeyMaxBatchSize, DefaultMaxBatchSize)
	dp.SetDefault(cfgKeyBatchIdleDelay, DefaultBatchIdleDelay)
}

// Set sets request queue configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	concurrencyLimit, err := dp.GetInt(cfgKeyConcurrencyLimit)
	if err != nil {
		return err
	}
	if concurrencyLimit <= 0 {
		return dp.WrapKeyErr(cfgKeyConcurrencyLimit, errors.New("must be positive"))
	}
	c.ConcurrencyLimit = concurrencyLimit

	maxBatchSize, err := dp.GetInt(cfgKeyMaxBatchSize)
	if err != nil {
		return err
	}
	if maxBatchSize <= 0 {
		return dp.WrapKeyErr(cfgKeyMaxBatchSize, errors.New("must be positive"))
	}
	c.MaxBatchSize = maxBatchSize

	if c.BatchIdleDelay, err = dp.GetDuration(cfgKeyBatchIdleDelay); err != nil {
		return err
	}
	if c.BatchIdleDelay <= 0 {
		return dp.WrapKeyErr(cfgKeyBatchIdleDelay, errors.New("must be positive"))
	}

	return nil
}

// QueueOpts returns queue options built from the configuration.
func (c *Config) QueueOpts() QueueOpts {
	return QueueOpts{
		ConcurrencyLimit: c.ConcurrencyLimit,
		MaxBatchSize:     c.MaxBatchSize,
		BatchIdleDelay:   c.BatchIdleDelay,
	}
}
