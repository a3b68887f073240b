package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")
	l := logrus.New()
	closer := Configure(l, Options{Level: "debug", JSON: true, File: path, MaxSizeMB: 1, MaxAgeDays: 1})

	l.WithField("operation", "Deposit").Debug("Ledger operation committed")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"operation":"Deposit"`)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestConfigureUnknownLevel(t *testing.T) {
	l := logrus.New()
	closer := Configure(l, Options{Level: "chatty"})
	assert.NoError(t, closer.Close())
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	_, ok := l.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}
