package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoggerWritesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session"+FileExt)

	l, err := NewFileLogger(path)
	require.NoError(t, err)
	l.Log(Event{Timestamp: time.Now(), SessionID: "first"})
	require.NoError(t, l.Close())

	l, err = NewFileLogger(path)
	require.NoError(t, err)
	l.Log(Event{Timestamp: time.Now(), SessionID: "second"})
	require.NoError(t, l.Close())

	events := readAll(t, path, Filter{})
	require.Len(t, events, 2)
	assert.Equal(t, "first", events[0].SessionID)
	assert.Equal(t, "second", events[1].SessionID)
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent"+FileExt)
	l, err := NewFileLogger(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				l.Log(Event{SessionID: "s", Frame: &FrameEvent{CommandID: uint8(g), Size: i}})
			}
		}()
	}
	wg.Wait()
	require.NoError(t, l.Close())

	assert.Len(t, readAll(t, path, Filter{}), 400)
	assert.Zero(t, l.WriteErrors())
}

func TestFileLoggerCloseTwiceAndLogAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed"+FileExt)
	l, err := NewFileLogger(path)
	require.NoError(t, err)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	l.Log(Event{SessionID: "late"})

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestNewFileLoggerBadPath(t *testing.T) {
	_, err := NewFileLogger(filepath.Join(t.TempDir(), "missing", "x"+FileExt))
	assert.Error(t, err)
}

func readAll(t *testing.T, path string, f Filter) []Event {
	t.Helper()
	r, err := NewFilteredReader(path, f)
	require.NoError(t, err)
	defer r.Close()

	var out []Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, e)
	}
}
