package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns stdout, stderr,
// and the execution error.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "beamline", cmd.Use)
	assert.Contains(t, cmd.Long, "particle-transport")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"run", "validate", "inspect", "report"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	verbosityFlag := cmd.PersistentFlags().Lookup("verbosity")
	require.NotNil(t, verbosityFlag)
	assert.Equal(t, "info", verbosityFlag.DefValue)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	for flag, def := range map[string]string{
		"events":            "0",
		"threads":           "0",
		"seed":              "0",
		"entries":           "0",
		"time-limit":        "0s",
		"output":            "",
		"geometry":          "",
		"interactive-input": "",
	} {
		f := runCmd.Flags().Lookup(flag)
		require.NotNil(t, f, "flag --%s should exist", flag)
		assert.Equal(t, def, f.DefValue, "flag --%s default", flag)
	}
}

func TestReportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	reportCmd, _, err := cmd.Find([]string{"report"})
	require.NoError(t, err)

	runFlag := reportCmd.Flags().Lookup("run")
	require.NotNil(t, runFlag)
	assert.Equal(t, "", runFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isOneOf("text", ValidFormats))
	assert.True(t, isOneOf("json", ValidFormats))

	assert.False(t, isOneOf("xml", ValidFormats))
	assert.False(t, isOneOf("", ValidFormats))
	assert.False(t, isOneOf("TEXT", ValidFormats))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, _, err := executeCommand(t, "--format", "invalid", "validate", "run.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestVerbosityValidationIntegration(t *testing.T) {
	_, _, err := executeCommand(t, "--verbosity", "loud", "validate", "run.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid verbosity")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	_, _, err := executeCommand(t, "validate", "--frobnicate", "run.yml")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestMissingArgumentIsUsageError(t *testing.T) {
	_, _, err := executeCommand(t, "validate")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}
