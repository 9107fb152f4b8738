/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package log_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chorushub/go-clipkit/log"
	"github.com/chorushub/go-clipkit/log/logtest"
)

func TestFieldLogger(t *testing.T) {
	t.Run("levels and fields", func(t *testing.T) {
		recorder := logtest.NewRecorder()

		recorder.Info("catalog opened", log.String("dir", "/data"), log.Int("clips", 42))
		recorder.Error("write failed", log.Error(errors.New("disk full")))

		entries := recorder.Entries()
		require.Len(t, entries, 2)

		entry, found := recorder.FindEntry("catalog opened")
		require.True(t, found)
		require.Equal(t, log.LevelInfo, entry.Level)
		field, found := entry.FindField("dir")
		require.True(t, found)
		require.Equal(t, "/data", string(field.Bytes))

		entry, found = recorder.FindEntry("write failed")
		require.True(t, found)
		require.Equal(t, log.LevelError, entry.Level)
	})

	t.Run("with adds derived fields", func(t *testing.T) {
		recorder := logtest.NewRecorder()
		recorder.With(log.String("worker", "pool_cleanup")).Info("started")

		entry, found := recorder.FindEntry("started")
		require.True(t, found)
		_, found = entry.FindField("worker")
		require.True(t, found)
	})

	t.Run("formatted logging", func(t *testing.T) {
		recorder := logtest.NewRecorder()
		recorder.Warnf("retrying in %dms", 500)
		_, found := recorder.FindEntry("retrying in 500ms")
		require.True(t, found)
	})

	t.Run("reset", func(t *testing.T) {
		recorder := logtest.NewRecorder()
		recorder.Info("something")
		recorder.Reset()
		require.Empty(t, recorder.Entries())
	})
}

func TestNewDisabledLogger(t *testing.T) {
	logger := log.NewDisabledLogger()
	require.NotPanics(t, func() {
		logger.Debug("a")
		logger.Info("b")
		logger.Warn("c")
		logger.Error("d")
		logger.With(log.String("k", "v")).Info("e")
	})
}
