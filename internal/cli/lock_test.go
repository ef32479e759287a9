//go:build unix

package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/pacservice-go/internal/config"
	"github.com/John-Robertt/pacservice-go/internal/logging"
	"github.com/John-Robertt/pacservice-go/internal/model"
	"github.com/John-Robertt/pacservice-go/internal/store"
)

func TestMutatingCommands_RefuseLockedRegistry(t *testing.T) {
	db := tempDB(t)
	addP1(t, db)

	lock, err := store.LockFile(db)
	require.NoError(t, err)
	defer lock.Release()

	for _, args := range [][]string{
		{"proxy", "add", "--id", "p2", "--proto", "PROXY", "--host", "h", "--port", "1"},
		{"proxy", "update", "p1", "--port", "2"},
		{"proxy", "delete", "p1"},
		{"domain", "add", "p1", "new.example"},
		{"domain", "remove", "p1", "corp.example"},
		{"domain", "tag", "p1", "corp.example", "x"},
	} {
		resp, res := runJSON[any](t, db, args...)
		require.Error(t, res.err, "%v", args)
		assert.Equal(t, ExitCommandError, GetExitCode(res.err), "%v", args)
		require.NotNil(t, resp.Error, "%v", args)
		assert.Equal(t, "REGISTRY_LOCKED", resp.Error.Code, "%v", args)
		assert.Contains(t, resp.Error.Message, "is serve running?")
	}

	// Reads still work and nothing changed.
	resp, res := runJSON[model.Proxy](t, db, "proxy", "get", "p1")
	require.NoError(t, res.err)
	assert.Equal(t, 1080, resp.Data.Port)
	assert.Len(t, resp.Data.Domains, 2)

	require.NoError(t, lock.Release())
	res = run(t, db, "domain", "add", "p1", "new.example")
	require.NoError(t, res.err, "stderr=%q", res.stderr)
}

func TestServe_RefusesLockedRegistry(t *testing.T) {
	cfg := config.Default()
	cfg.Listen = "127.0.0.1:0"
	cfg.DBFile = tempDB(t)

	lock, err := store.LockFile(cfg.DBFile)
	require.NoError(t, err)
	defer lock.Release()

	err = serve(context.Background(), cfg, logging.Discard(), nil)
	require.ErrorIs(t, err, store.ErrLocked)
}
