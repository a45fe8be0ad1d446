package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "agent", "doctor", "init", "remote", "version", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestRunFlags(t *testing.T) {
	for _, cmd := range []string{"", "run"} {
		c := rootCmd
		if cmd != "" {
			var err error
			c, _, err = rootCmd.Find([]string{cmd})
			require.NoError(t, err)
		}
		for _, flag := range []string{"headless", "no-router", "no-touch", "metrics-addr"} {
			assert.NotNil(t, c.Flags().Lookup(flag), "%s --%s", c.Name(), flag)
		}
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
}

func TestCompletion(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "# bash completion for fb4rasp"},
		{"zsh", "#compdef fb4rasp"},
		{"fish", "complete -c fb4rasp"},
		{"powershell", "Register-ArgumentCompleter"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			var buf bytes.Buffer
			rootCmd.SetOut(&buf)
			t.Cleanup(func() { rootCmd.SetOut(nil) })
			rootCmd.SetArgs([]string{"completion", tt.shell})
			t.Cleanup(func() { rootCmd.SetArgs(nil) })

			require.NoError(t, rootCmd.Execute())
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestCompletion_UnknownShell(t *testing.T) {
	rootCmd.SetArgs([]string{"completion", "tcsh"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid argument"))
}
