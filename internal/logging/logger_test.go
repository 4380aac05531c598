package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerIsCachedPerComponent(t *testing.T) {
	a := NewLogger("session")
	b := NewLogger("session")
	assert.Same(t, a, b)
	assert.Equal(t, "session", a.Data["component"])
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name    string
		f       TextFormatter
		entry   *logrus.Entry
		want    string
		notWant []string
	}{
		{
			name: "fields sorted, component first",
			f:    TextFormatter{DisableTimestamp: true},
			entry: &logrus.Entry{
				Level:   logrus.WarnLevel,
				Message: "slow frame",
				Data:    logrus.Fields{"component": "tui", "b": 2, "a": 1},
			},
			want: "[WARN] [tui] slow frame a=1 b=2\n",
		},
		{
			name: "simple",
			f:    TextFormatter{DisableTimestamp: true, DisableComponent: true},
			entry: &logrus.Entry{
				Level:   logrus.InfoLevel,
				Message: "Session ended.",
				Data:    logrus.Fields{"component": "session"},
			},
			want: "[INFO] Session ended.\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.f.Format(tt.entry)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestConfigure(t *testing.T) {
	t.Cleanup(func() {
		_, _ = Configure(Config{})
	})

	_, err := Configure(Config{Level: "loud"})
	assert.Error(t, err)
	_, err = Configure(Config{Format: "xml"})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "logs", "graphperf.log")
	closer, err := Configure(Config{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)
	NewLogger("config-test").WithField("nodes", 3).Debug("loaded")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"loaded"`)
	assert.Contains(t, string(data), `"nodes":3`)
	assert.Contains(t, string(data), `"component":"config-test"`)
}

func TestSetOutput(t *testing.T) {
	t.Cleanup(func() { SetOutput(os.Stderr) })
	var buf bytes.Buffer
	SetOutput(&buf)
	NewLogger("out-test").Info("hello")
	assert.Contains(t, buf.String(), "[out-test] hello")
}
