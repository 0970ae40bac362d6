package archive

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	t.Run("version", func(t *testing.T) {
		var errOut bytes.Buffer
		_, err := ParseArgs("timetable-archive", []string{"-version"}, &errOut)
		assert.ErrorIs(t, err, flag.ErrHelp)
		assert.Contains(t, errOut.String(), "timetable-archive: version")
	})

	t.Run("requires a database", func(t *testing.T) {
		var errOut bytes.Buffer
		_, err := ParseArgs("timetable-archive", nil, &errOut)
		assert.ErrorContains(t, err, "database")
	})

	t.Run("reads the file and applies flag overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "archive.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
database = "postgres://localhost/timetable"
telemetry = ":9100"

[archive]
interval_seconds = 60
`), 0o600))

		var errOut bytes.Buffer
		cfg, err := ParseArgs("timetable-archive", []string{"-toml", path, "-telemetry", ":9200", "-once"}, &errOut)
		require.NoError(t, err)

		assert.True(t, cfg.Once)
		assert.Equal(t, ":9200", cfg.File.Telemetry)
		assert.Equal(t, 60, cfg.File.Archive.IntervalSeconds)
	})

	t.Run("validates the file settings after overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "archive.toml")
		require.NoError(t, os.WriteFile(path, []byte(`database = "postgres://localhost/timetable"`), 0o600))

		var errOut bytes.Buffer
		_, err := ParseArgs("timetable-archive", []string{"-toml", path, "-telemetry", "metrics"}, &errOut)
		assert.ErrorContains(t, err, "Telemetry")
	})

	t.Run("unknown flag", func(t *testing.T) {
		var errOut bytes.Buffer
		assert.Equal(t, -1, Main("timetable-archive", []string{"-bogus"}, &errOut, &errOut))
	})
}
