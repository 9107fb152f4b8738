/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"fmt"
	"strconv"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v3"
)

// ByteSize represents a size in bytes that can be parsed from JSON and YAML.
// Both plain numbers and strings with units ("512K", "10M", "1G") are accepted.
type ByteSize uint64

// UnmarshalJSON implements json.Unmarshaler.
func (b *ByteSize) UnmarshalJSON(data []byte) error {
	var num uint64
	if err := json.Unmarshal(data, &num); err == nil {
		*b = ByteSize(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("byte size should be a number or a string: %w", err)
	}
	bs, err := parseByteSizeFromString(s)
	if err != nil {
		return err
	}
	*b = bs
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if num, err := strconv.ParseUint(value.Value, 10, 64); err == nil {
		*b = ByteSize(num)
		return nil
	}
	bs, err := parseByteSizeFromString(value.Value)
	if err != nil {
		return err
	}
	*b = bs
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// It's used by mapstructure when the config value is a string.
func (b *ByteSize) UnmarshalText(text []byte) error {
	if num, err := strconv.ParseUint(string(text), 10, 64); err == nil {
		*b = ByteSize(num)
		return nil
	}
	bs, err := parseByteSizeFromString(string(text))
	if err != nil {
		return err
	}
	*b = bs
	return nil
}

// String implements fmt.Stringer.
func (b ByteSize) String() string {
	return bytefmt.ByteSize(uint64(b))
}

func parseByteSizeFromString(s string) (ByteSize, error) {
	if s == "" {
		return 0, nil
	}
	num, err := bytefmt.ToBytes(s)
	if err != nil {
		return 0, fmt.Errorf("parse byte size %q: %w", s, err)
	}
	return ByteSize(num), nil
}
