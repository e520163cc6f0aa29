package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type channelNotifier struct {
	ch chan struct{}
}

func newChannelNotifier() *channelNotifier {
	return &channelNotifier{ch: make(chan struct{}, 16)}
}

func (n *channelNotifier) DataChanged() {
	n.ch <- struct{}{}
}

func (n *channelNotifier) wait(t *testing.T, timeout time.Duration) bool {
	t.Helper()
	select {
	case <-n.ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

func startWatcher(t *testing.T, dataPath string, n *channelNotifier) *Watcher {
	t.Helper()
	w, err := New(dataPath, n, zerolog.Nop())
	require.NoError(t, err)
	w.settleDelay = 50 * time.Millisecond
	require.NoError(t, w.Start())
	t.Cleanup(func() { w.Stop() })
	return w
}

func TestWatcherNotifiesOnWrite(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "data.json")
	n := newChannelNotifier()
	startWatcher(t, dataPath, n)

	require.NoError(t, os.WriteFile(dataPath, []byte("{}"), 0644))
	assert.True(t, n.wait(t, 2*time.Second), "expected a change notification")
}

func TestWatcherNotifiesOnAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(dataPath, []byte("{}"), 0644))

	n := newChannelNotifier()
	startWatcher(t, dataPath, n)

	// Same replace discipline the store uses: temp file, then rename.
	tmpPath := filepath.Join(dir, "data.json.tmp-1")
	require.NoError(t, os.WriteFile(tmpPath, []byte(`{"sessions":[]}`), 0644))
	require.NoError(t, os.Rename(tmpPath, dataPath))

	assert.True(t, n.wait(t, 2*time.Second), "expected a change notification")
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.json")
	n := newChannelNotifier()
	startWatcher(t, dataPath, n)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644))
	assert.False(t, n.wait(t, 300*time.Millisecond), "unrelated files must not notify")
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "data.json")
	n := newChannelNotifier()
	startWatcher(t, dataPath, n)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(dataPath, []byte("{}"), 0644))
	}

	require.True(t, n.wait(t, 2*time.Second))
	// The burst settles into a single notification.
	assert.False(t, n.wait(t, 300*time.Millisecond), "burst should collapse to one notification")
}

func TestWatcherNotifiesOnRemove(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(dataPath, []byte("{}"), 0644))

	n := newChannelNotifier()
	startWatcher(t, dataPath, n)

	require.NoError(t, os.Remove(dataPath))
	assert.True(t, n.wait(t, 2*time.Second), "expected a change notification")
}

func TestWatcherCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not-yet")
	n := newChannelNotifier()
	startWatcher(t, filepath.Join(dir, "data.json"), n)

	_, err := os.Stat(dir)
	assert.NoError(t, err)
}
