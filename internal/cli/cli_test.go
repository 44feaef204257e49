package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrel/internal/build"
)

func fixedLogger(buf *bytes.Buffer, verbose, debug bool) *Logger {
	l := NewLoggerTo(buf, verbose, debug, false)
	l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return l
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, false, false)
	l.Info("hidden")
	l.Debug("hidden")
	l.Warn("careful %d", 1)
	l.Error("broken")
	assert.Equal(t, "[WARN] 03:04:05: careful 1\n[ERROR] 03:04:05: broken\n", buf.String())

	buf.Reset()
	l = fixedLogger(&buf, true, true)
	l.Info("a")
	l.Debug("b")
	assert.Equal(t, "[INFO] 03:04:05: a\n[DEBUG] 03:04:05: b\n", buf.String())
}

func TestLoggerColor(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, false, false, true)
	l.Warn("w")
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestLoggerSatisfiesBuildLogger(t *testing.T) {
	var _ build.Logger = NewLogger(false, false)
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintVersion(&buf, "kestrelc", false))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "kestrelc v"+Version+"\n"), out)
	assert.Contains(t, out, "Language: "+build.LanguageVersion)

	buf.Reset()
	require.NoError(t, PrintVersion(&buf, "kestrelc", true))
	var decoded struct {
		Tool        string      `json:"tool"`
		VersionInfo VersionInfo `json:"version_info"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "kestrelc", decoded.Tool)
	assert.Equal(t, Version, decoded.VersionInfo.Version)
}

func TestValidateArgs(t *testing.T) {
	assert.NoError(t, ValidateArgs([]string{"a"}, 1, "tool check FILE"))
	err := ValidateArgs(nil, 1, "tool check FILE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool check FILE")
}
