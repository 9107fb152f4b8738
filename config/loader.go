/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
)

// Loader reads raw configuration data into a DataProvider and populates
// configuration objects from it in two passes: provider defaults first,
// then the actual values. Objects with a key prefix are populated
// from the corresponding subtree of the data.
type Loader struct {
	DataProvider DataProvider
}

// NewDefaultLoader creates a new configurations loader with an ability to read values from the environment variables.
func NewDefaultLoader(envVarsPrefix string) *Loader {
	va := NewViperAdapter()
	va.UseEnvVars(envVarsPrefix)
	return NewLoader(va)
}

// NewLoader creates a new configurations' loader.
func NewLoader(dp DataProvider) *Loader {
	return &Loader{dp}
}

// LoadFromFile loads configuration values from file and sets them in configuration objects.
func (l *Loader) LoadFromFile(path string, dataType DataType, cfgs ...Config) error {
	if err := l.DataProvider.SetFromFile(path, dataType); err != nil {
		return fmt.Errorf("read configuration from file: %w", err)
	}
	return l.populate(cfgs)
}

// LoadFromReader loads configuration values from reader and sets them in configuration objects.
func (l *Loader) LoadFromReader(reader io.Reader, dataType DataType, cfgs ...Config) error {
	if err := l.DataProvider.SetFromReader(reader, dataType); err != nil {
		return fmt.Errorf("read configuration from reader: %w", err)
	}
	return l.populate(cfgs)
}

// populate applies defaults for all objects before setting any values,
// so that one object's Set cannot observe another's missing defaults.
func (l *Loader) populate(cfgs []Config) error {
	for _, cfg := range cfgs {
		cfg.SetProviderDefaults(dpForConfig(cfg, l.DataProvider))
	}
	for _, cfg := range cfgs {
		if err := cfg.Set(dpForConfig(cfg, l.DataProvider)); err != nil {
			return err
		}
	}
	return nil
}
