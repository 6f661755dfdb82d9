// Package diaglog implements the append-only diagnostics file written by a
// single background worker. Producers never block on file I/O.
package diaglog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrClosed is returned by Enqueue once Close has been called. The line is dropped.
var ErrClosed = errors.New("diagnostics logger is closed")

const timestampLayout = "02-01-2006, 15:04:05"

// State is the lifecycle stage of a Logger.
type State int

const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Logger queues diagnostic lines and writes them in FIFO order from one worker.
// The queue is unbounded.
type Logger struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue []string
	state State

	w    io.WriteCloser
	now  func() time.Time
	done chan struct{}
	err  error

	closeOnce sync.Once
	closeErr  error
}

// Open truncates or creates the file at path and starts the worker.
func Open(path string) (*Logger, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create diagnostics directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open diagnostics file: %w", err)
	}
	return New(f), nil
}

// New starts a Logger writing to w. The Logger owns w and closes it on Close.
func New(w io.WriteCloser) *Logger {
	return newLogger(w, time.Now)
}

func newLogger(w io.WriteCloser, now func() time.Time) *Logger {
	l := &Logger{
		w:    w,
		now:  now,
		done: make(chan struct{}),
	}
	l.cond = sync.NewCond(&l.mu)

	go l.run()
	return l
}

// Enqueue timestamps message and queues it. It returns immediately.
func (l *Logger) Enqueue(message string) error {
	line := l.now().Format(timestampLayout) + " - " + message

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateOpen {
		return ErrClosed
	}
	l.queue = append(l.queue, line)
	l.cond.Signal()
	return nil
}

// State returns the current lifecycle stage.
func (l *Logger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Close stops accepting lines, waits for the worker to write everything
// queued so far and closes the writer. Later calls return the first result.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.state = StateClosing
		l.cond.Broadcast()
		l.mu.Unlock()

		<-l.done

		closeErr := l.w.Close()

		l.mu.Lock()
		l.state = StateClosed
		writeErr := l.err
		l.mu.Unlock()

		l.closeErr = errors.Join(writeErr, closeErr)
	})
	return l.closeErr
}

func (l *Logger) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && l.state == StateOpen {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, line := range batch {
			l.write(line)
		}
	}
}

// write hands one line to the writer. Failures are kept for Close and do not
// stop the worker from draining the rest of the queue.
func (l *Logger) write(line string) {
	if _, err := io.WriteString(l.w, line+"\n"); err != nil {
		l.mu.Lock()
		if l.err == nil {
			l.err = fmt.Errorf("write diagnostics line: %w", err)
		}
		l.mu.Unlock()
	}
}
