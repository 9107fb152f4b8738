/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestByteSizeUnmarshal(t *testing.T) {
	type target struct {
		Size ByteSize `json:"size" yaml:"size"`
	}

	t.Run("yaml", func(t *testing.T) {
		tests := []struct {
			Data string
			Want ByteSize
		}{
			{"size: 1024", ByteSize(1024)},
			{"size: 512K", ByteSize(1024 * 512)},
			{"size: 10M", ByteSize(1024 * 1024 * 10)},
			{"size: 1G", ByteSize(1024 * 1024 * 1024)},
		}
		for _, tt := range tests {
			var tgt target
			require.NoError(t, yaml.Unmarshal([]byte(tt.Data), &tgt), tt.Data)
			require.Equal(t, tt.Want, tgt.Size, tt.Data)
		}
	})

	t.Run("json", func(t *testing.T) {
		var tgt target
		require.NoError(t, json.Unmarshal([]byte(`{"size": 2048}`), &tgt))
		require.Equal(t, ByteSize(2048), tgt.Size)

		require.NoError(t, json.Unmarshal([]byte(`{"size": "2M"}`), &tgt))
		require.Equal(t, ByteSize(1024*1024*2), tgt.Size)
	})

	t.Run("malformed", func(t *testing.T) {
		var tgt target
		require.Error(t, yaml.Unmarshal([]byte("size: 2X"), &tgt))
		require.Error(t, json.Unmarshal([]byte(`{"size": "2X"}`), &tgt))
	})
}

func TestByteSizeString(t *testing.T) {
	require.Equal(t, "10M", ByteSize(1024*1024*10).String())
	require.Equal(t, "1K", ByteSize(1024).String())
}
