package watch_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/beadwork/bead/internal/boxindex"
	"github.com/beadwork/bead/internal/watch"
	"github.com/beadwork/bead/testhelpers"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	t1 = "20230101T010000000000+0000"
	t2 = "20230101T020000000000+0000"
)

// syncRecorder collects sync progress across goroutines.
type syncRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *syncRecorder) add(p boxindex.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, p.Path)
}

func (r *syncRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestRun_SyncsOnNewArchive(t *testing.T) {
	dir := t.TempDir()
	ix := boxindex.New(dir)
	require.NoError(t, ix.EnsureExists())

	recorder := &syncRecorder{}
	w := watch.New(dir, ix, 50*time.Millisecond)
	w.OnProgress = recorder.add

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher a moment to arm before producing events
	time.Sleep(100 * time.Millisecond)
	testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "bead1", Kind: "k1", FreezeTime: t1})

	waitFor(t, 5*time.Second, func() bool { return len(recorder.snapshot()) >= 1 })

	beads, err := ix.Beads(nil, "watched")
	require.NoError(t, err)
	require.Len(t, beads, 1)
	assert.Equal(t, "bead1", beads[0].Name)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_SyncsOnRemovedArchive(t *testing.T) {
	dir := t.TempDir()
	path := testhelpers.StoreBead(t, dir, testhelpers.BeadSpec{Name: "doomed", Kind: "k1", FreezeTime: t2})
	ix := boxindex.New(dir)
	for _, err := range ix.Rebuild() {
		require.NoError(t, err)
	}

	recorder := &syncRecorder{}
	w := watch.New(dir, ix, 50*time.Millisecond)
	w.OnProgress = recorder.add

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.Remove(path))

	waitFor(t, 5*time.Second, func() bool {
		beads, err := ix.Beads(nil, "watched")
		return err == nil && len(beads) == 0
	})

	cancel()
	require.NoError(t, <-done)
}

func TestRun_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	ix := boxindex.New(dir)
	require.NoError(t, ix.EnsureExists())

	w := watch.New(dir, ix, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
