package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/pacservice-go/internal/model"
)

// faultFS is the real file system with scripted rename and copy failures.
type faultFS struct {
	osFS

	mu          sync.Mutex
	renameErrs  []error // consumed one per Rename call; nil means "really rename"
	copyErr     error
	renameCalls int
	copyCalls   int
	renameHook  func()
}

func (f *faultFS) Rename(oldpath, newpath string) error {
	f.mu.Lock()
	f.renameCalls++
	var err error
	if len(f.renameErrs) > 0 {
		err = f.renameErrs[0]
		f.renameErrs = f.renameErrs[1:]
	}
	hook := f.renameHook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: err}
	}
	return f.osFS.Rename(oldpath, newpath)
}

func (f *faultFS) CopyFile(src, dst string) error {
	f.mu.Lock()
	f.copyCalls++
	err := f.copyErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.osFS.CopyFile(src, dst)
}

func (f *faultFS) failRenames(errs ...error) {
	f.mu.Lock()
	f.renameErrs = append(f.renameErrs, errs...)
	f.mu.Unlock()
}

func repeatErr(err error, n int) []error {
	out := make([]error, n)
	for i := range out {
		out[i] = err
	}
	return out
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func dbPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "data", "db.json")
}

func openTest(t *testing.T, path string, opts ...Option) *Store {
	t.Helper()
	s := Open(path, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func p1() model.Proxy {
	return model.Proxy{ID: "p1", Proto: model.ProtoSOCKS5, Host: "10.0.0.1", Port: 1080, Domains: []model.Domain{}}
}

func mustAdd(t *testing.T, s *Store, p model.Proxy) model.Proxy {
	t.Helper()
	got, err := s.AddProxy(context.Background(), p)
	require.NoError(t, err)
	return got
}
