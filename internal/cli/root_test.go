package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garrett-reinhard/ord-interface/internal/config"
	"github.com/garrett-reinhard/ord-interface/internal/server"
)

// execute runs the CLI with args against opts. No dotenv file is read.
func execute(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(t, context.Background(), opts, args...)
}

// executeContext is execute with a caller-supplied command context.
func executeContext(t *testing.T, ctx context.Context, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(opts)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	full := append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...)
	cmd.SetArgs(full)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// withRunner returns options whose commands use r instead of a database.
func withRunner(r *fakeRunner) *RootOptions {
	return &RootOptions{
		OpenRunner: func(context.Context, *config.Config, *zap.Logger) (server.Runner, func(), error) {
			r.opened++
			return r, func() { r.released++ }, nil
		},
	}
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ordq", cmd.Use)
	assert.Contains(t, cmd.Long, "Open Reaction Database")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"serve", "query", "compile", "datasets"}

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

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	envFlag := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, envFlag)
	assert.Equal(t, ".env", envFlag.DefValue)
}

func TestQueryFlagsShared(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"query", "compile"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		for _, flag := range append([]string{"file", "limit", "ids-only"}, queryFlagNames...) {
			assert.NotNil(t, sub.Flags().Lookup(flag), "%s --%s", name, flag)
		}
	}

	query, _, err := cmd.Find([]string{"query"})
	require.NoError(t, err)
	assert.Equal(t, "o", query.Flags().Lookup("download").Shorthand)

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("addr"))
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, &RootOptions{}, "--format", "xml", "compile", "--dois", "10.1/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("POSTGRES_PORT", "not-a-number")

	stdout, _, err := execute(t, &RootOptions{}, "compile", "--dois", "10.1/x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, ErrCodeConfig)
}
