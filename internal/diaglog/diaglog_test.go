package diaglog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memWriter records writes and can block or fail them.
type memWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	closed  bool
	gate    chan struct{}
	failOn  int
	written int
}

func (m *memWriter) Write(p []byte) (int, error) {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written++
	if m.failOn > 0 && m.written == m.failOn {
		return 0, errors.New("disk full")
	}
	return m.buf.Write(p)
}

func (m *memWriter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memWriter) lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := strings.TrimSuffix(m.buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func fixedClock() time.Time {
	return time.Date(2024, time.March, 5, 14, 7, 9, 0, time.Local)
}

func TestLogger(t *testing.T) {
	t.Parallel()

	t.Run("writes timestamped lines", func(t *testing.T) {
		t.Parallel()

		w := &memWriter{}
		l := newLogger(w, fixedClock)

		require.NoError(t, l.Enqueue("skipped block /html[1]/body[1]/ul[1]/li[1]: missing link."))
		require.NoError(t, l.Close())

		assert.Equal(t, []string{"05-03-2024, 14:07:09 - skipped block /html[1]/body[1]/ul[1]/li[1]: missing link."}, w.lines())
		assert.True(t, w.closed)
	})

	t.Run("close drains every queued line in order", func(t *testing.T) {
		t.Parallel()

		const n = 500
		w := &memWriter{}
		l := New(w)

		for i := 0; i < n; i++ {
			require.NoError(t, l.Enqueue(fmt.Sprintf("line %d", i)))
		}
		require.NoError(t, l.Close())

		lines := w.lines()
		require.Len(t, lines, n)
		for i, line := range lines {
			assert.True(t, strings.HasSuffix(line, fmt.Sprintf(" - line %d", i)), "line %d out of order: %q", i, line)
		}
	})

	t.Run("enqueue does not wait for the writer", func(t *testing.T) {
		t.Parallel()

		w := &memWriter{gate: make(chan struct{})}
		l := New(w)

		done := make(chan struct{})
		go func() {
			for i := 0; i < 100; i++ {
				_ = l.Enqueue("queued")
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Enqueue blocked on a stalled writer")
		}

		close(w.gate)
		require.NoError(t, l.Close())
		assert.Len(t, w.lines(), 100)
	})

	t.Run("enqueue after close is rejected", func(t *testing.T) {
		t.Parallel()

		w := &memWriter{}
		l := New(w)
		require.NoError(t, l.Close())

		assert.ErrorIs(t, l.Enqueue("late"), ErrClosed)
		assert.Equal(t, StateClosed, l.State())
		assert.Empty(t, w.lines())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		l := New(&memWriter{})
		assert.Equal(t, StateOpen, l.State())
		require.NoError(t, l.Close())
		require.NoError(t, l.Close())
	})

	t.Run("write failure is reported and the rest still drains", func(t *testing.T) {
		t.Parallel()

		w := &memWriter{failOn: 2}
		l := newLogger(w, fixedClock)
		for _, msg := range []string{"a", "b", "c"} {
			require.NoError(t, l.Enqueue(msg))
		}

		err := l.Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.Equal(t, []string{"05-03-2024, 14:07:09 - a", "05-03-2024, 14:07:09 - c"}, w.lines())
	})

	t.Run("concurrent producers keep every line", func(t *testing.T) {
		t.Parallel()

		w := &memWriter{}
		l := New(w)

		var wg sync.WaitGroup
		for p := 0; p < 8; p++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					_ = l.Enqueue("x")
				}
			}()
		}
		wg.Wait()
		require.NoError(t, l.Close())

		assert.Len(t, w.lines(), 400)
	})
}

func TestOpenTruncatesExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "log.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale line\n"), 0o644))

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Enqueue("fresh"))
	require.NoError(t, l.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "stale")
	assert.Equal(t, 1, strings.Count(string(raw), "\n"))
	assert.Contains(t, string(raw), " - fresh")
}
