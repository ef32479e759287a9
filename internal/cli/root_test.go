package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "pacservice", cmd.Use)
	assert.Contains(t, cmd.Long, "PAC script")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"serve"}, {"healthcheck"}, {"state"}, {"pac"}, {"resolve"},
		{"proxy", "list"}, {"proxy", "get"}, {"proxy", "add"}, {"proxy", "update"}, {"proxy", "delete"},
		{"domain", "add"}, {"domain", "remove"}, {"domain", "tag"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
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

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("db"))
}

func TestInvalidFormat(t *testing.T) {
	res := run(t, tempDB(t), "--format", "yaml", "state")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.stderr, "invalid format")
}

func TestLoadConfig_Precedence(t *testing.T) {
	env := map[string]string{"DB_FILE": "/env/db.json", "PORT": "4000"}
	opts := &RootOptions{getenv: func(k string) string { return env[k] }}

	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/env/db.json", cfg.DBFile)
	assert.Equal(t, ":4000", cfg.Listen)

	opts.DBFile = "/flag/db.json"
	opts.Verbose = true
	cfg, err = opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/flag/db.json", cfg.DBFile)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_BadFile(t *testing.T) {
	opts := &RootOptions{ConfigPath: "/nonexistent/config.yaml", getenv: noEnv}
	_, err := opts.loadConfig()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
