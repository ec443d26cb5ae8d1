package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"documind/internal/app"
	"documind/internal/importer"
	"documind/internal/queue"
)

type fakeInspector struct {
	dead      []queue.TaskInfo
	requeued  []string
	requeueFn func(string) error
	closed    bool
}

func (f *fakeInspector) ListDead(string) ([]queue.TaskInfo, error) { return f.dead, nil }

func (f *fakeInspector) Requeue(_, id string) error {
	if f.requeueFn != nil {
		if err := f.requeueFn(id); err != nil {
			return err
		}
	}
	f.requeued = append(f.requeued, id)
	return nil
}

func (f *fakeInspector) RequeueAll(string) (int, error) { return len(f.dead), nil }
func (f *fakeInspector) Close() error                   { f.closed = true; return nil }

func testEnv(out *bytes.Buffer, insp *fakeInspector) *env {
	return &env{
		out: out,
		openApp: func(context.Context) (*app.App, error) {
			return nil, errors.New("no infrastructure in tests")
		},
		newInspector: func() (deadLetters, error) { return insp, nil },
	}
}

func run(e *env, args ...string) error {
	cmd := newRootCmd(e)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	return cmd.ExecuteContext(context.Background())
}

func TestImport_DryRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("meeting notes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("# Title"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.png"), []byte{0x89, 'P', 'N', 'G'}, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD.txt"), []byte("ref"), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(testEnv(&out, nil), "import", "--user", "u1", "--dry-run", dir))

	var report importer.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Len(t, report.Imported, 2)
	assert.Len(t, report.Skipped, 1)
	assert.Empty(t, report.Failed)
	for _, f := range report.Imported {
		assert.Equal(t, "dry-run", f.TaskID)
	}
}

func TestImport_RequiresUser(t *testing.T) {
	var out bytes.Buffer
	err := run(testEnv(&out, nil), "import", "--dry-run", t.TempDir())
	assert.Error(t, err)
}

func TestImport_OpenFailure(t *testing.T) {
	var out bytes.Buffer
	err := run(testEnv(&out, nil), "import", "--user", "u1", t.TempDir())
	assert.ErrorContains(t, err, "no infrastructure")
}

func TestAnalyze_UnknownKind(t *testing.T) {
	var out bytes.Buffer
	err := run(testEnv(&out, nil), "analyze", "sentiment", "--user", "u1")
	assert.ErrorContains(t, err, "unknown analysis")
}

func TestRequeue(t *testing.T) {
	dead := []queue.TaskInfo{{ID: "t1", Type: queue.TypeDocumentIngest, Queue: queue.QueueCritical, State: "archived"}}

	t.Run("needs a target", func(t *testing.T) {
		var out bytes.Buffer
		assert.Error(t, run(testEnv(&out, &fakeInspector{}), "requeue"))
	})

	t.Run("list", func(t *testing.T) {
		var out bytes.Buffer
		insp := &fakeInspector{dead: dead}
		require.NoError(t, run(testEnv(&out, insp), "requeue", "--list"))

		var got []queue.TaskInfo
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, dead, got)
		assert.True(t, insp.closed)
	})

	t.Run("all", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(testEnv(&out, &fakeInspector{dead: dead}), "requeue", "--all"))
		assert.Equal(t, "requeued 1 tasks\n", out.String())
	})

	t.Run("one", func(t *testing.T) {
		var out bytes.Buffer
		insp := &fakeInspector{}
		require.NoError(t, run(testEnv(&out, insp), "requeue", "t1", "--queue", queue.QueueCritical))
		assert.Equal(t, []string{"t1"}, insp.requeued)
	})

	t.Run("unknown task", func(t *testing.T) {
		var out bytes.Buffer
		insp := &fakeInspector{requeueFn: func(string) error { return queue.ErrTaskNotFound }}
		err := run(testEnv(&out, insp), "requeue", "nope")
		assert.ErrorIs(t, err, queue.ErrTaskNotFound)
	})
}
