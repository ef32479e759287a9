package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

type runResult struct {
	stdout string
	stderr string
	err    error
}

// run executes the root command against db with the given arguments.
func run(t *testing.T, db string, args ...string) runResult {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(noEnv)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--db", db}, args...))
	err := cmd.Execute()
	return runResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

type jsonResponse[T any] struct {
	Status string    `json:"status"`
	Data   T         `json:"data"`
	Error  *CLIError `json:"error"`
}

// runJSON runs with --format json and decodes the response payload as T.
func runJSON[T any](t *testing.T, db string, args ...string) (jsonResponse[T], runResult) {
	t.Helper()
	res := run(t, db, append([]string{"--format", "json"}, args...)...)
	var resp jsonResponse[T]
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp), "stdout=%q stderr=%q", res.stdout, res.stderr)
	return resp, res
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "data", "db.json")
}
