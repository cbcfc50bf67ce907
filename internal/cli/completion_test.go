package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionCommandGeneratesScripts(t *testing.T) {
	tests := []struct {
		shell string
		want  []string
	}{
		{"bash", []string{"# bash completion", "__start_nexusctl", "__completeNoDesc"}},
		{"zsh", []string{"#compdef nexusctl", "_nexusctl()"}},
		{"fish", []string{"fish completion for nexusctl", "complete -c nexusctl"}},
		{"powershell", []string{"Register-ArgumentCompleter"}},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			var buf bytes.Buffer
			completionCmd.SetOut(&buf)
			t.Cleanup(func() { completionCmd.SetOut(nil) })

			require.NoError(t, completionCmd.RunE(completionCmd, []string{tt.shell}))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestCompletionBashSyntaxValid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, rootCmd.GenBashCompletion(&buf))
	output := buf.String()

	assert.Equal(t, strings.Count(output, "{"), strings.Count(output, "}"), "braces should be balanced")
	assert.Contains(t, output, "complete -o default -F __start_nexusctl nexusctl")
	assert.Contains(t, output, "_nexusctl_snapshot()")
	assert.Contains(t, output, "_nexusctl_watch()")
}

func TestCompletionCommandValidArgs(t *testing.T) {
	assert.ElementsMatch(t, []string{"bash", "zsh", "fish", "powershell"}, completionCmd.ValidArgs)
}

func TestCompletionUnknownShell(t *testing.T) {
	err := completionCmd.RunE(completionCmd, []string{"tcsh"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown shell: tcsh")
}
