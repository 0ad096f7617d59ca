package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "docintel", cmd.Use)

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "analyze", "watch", "version"} {
		assert.True(t, names[want], "missing %s", want)
	}

	for _, flag := range []string{"env-file", "log-mode", "quiet"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootRunsVersion(t *testing.T) {
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--env-file", "does-not-exist.env", "version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "DocIntel")
}

func TestAnalyzeRequiresOneArg(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"analyze"})
	assert.Error(t, cmd.Execute())
}

func TestQuietLogger(t *testing.T) {
	log, err := (&rootOptions{quiet: true}).logger()
	require.NoError(t, err)
	assert.NotNil(t, log)
}
