package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/quizbot/internal/users"
)

func TestPrintUsers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsers(&buf, nil))
	assert.Equal(t, "no registered users\n", buf.String())

	buf.Reset()
	joined := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, printUsers(&buf, []users.User{
		{ID: 1, TelegramID: 42, Name: "Asha", Region: "Haryana", CreatedAt: joined},
	}))
	out := buf.String()
	assert.Contains(t, out, "TELEGRAM ID")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "Asha")
	assert.Contains(t, out, "2024-03-01T09:30:00Z")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, buf.String(), "quizbot dev (commit local")
}

func TestBootstrapRejectsForeignConfig(t *testing.T) {
	_, err := bootstrap(nil)
	assert.ErrorIs(t, err, errUnexpectedConfig)
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(configEnvVar, "")
	assert.Equal(t, defaultConfigPath, resolveConfigPath(rootCmd))

	t.Setenv(configEnvVar, "/etc/quizbot.yaml")
	assert.Equal(t, "/etc/quizbot.yaml", resolveConfigPath(rootCmd))

	require.NoError(t, rootCmd.PersistentFlags().Set("config", "local.yaml"))
	t.Cleanup(func() { _ = rootCmd.PersistentFlags().Set("config", "") })
	assert.Equal(t, "local.yaml", resolveConfigPath(rootCmd))
}
