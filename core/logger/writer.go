package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// asyncWriter hands lines to a single goroutine that fans them out to the
// sinks. The buffer is flushed whenever the queue runs empty.
type asyncWriter struct {
	lines   chan []byte
	flushes chan chan error
	done    chan struct{}

	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error

	buf *bufio.Writer
}

func newAsyncWriter(sinks ...io.Writer) *asyncWriter {
	w := &asyncWriter{
		lines:   make(chan []byte, 256),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
		buf:     bufio.NewWriterSize(io.MultiWriter(sinks...), 64*1024),
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.fail(w.buf.Flush())
				return
			}
			if _, err := w.buf.Write(line); err != nil {
				w.fail(err)
			}
			if len(w.lines) == 0 {
				w.fail(w.buf.Flush())
			}
		case ack := <-w.flushes:
			// Flush holds the read lock, so lines cannot be closed here.
			for len(w.lines) > 0 {
				if _, err := w.buf.Write(<-w.lines); err != nil {
					w.fail(err)
				}
			}
			ack <- w.buf.Flush()
		}
	}
}

// Write queues a copy of p. It blocks when the queue is full rather than
// dropping lines.
func (w *asyncWriter) Write(p []byte) (int, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return 0, errWriterClosed
	}
	if err := w.firstErr(); err != nil {
		return 0, err
	}
	w.lines <- append([]byte(nil), p...)
	return len(p), nil
}

// Flush waits until every queued line reached the sinks.
func (w *asyncWriter) Flush() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return w.firstErr()
	}
	ack := make(chan error, 1)
	w.flushes <- ack
	return <-ack
}

// Close drains the queue and returns the first write error seen.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.mu.Unlock()
	<-w.done
	return w.firstErr()
}

func (w *asyncWriter) fail(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.errMu.Unlock()
}

func (w *asyncWriter) firstErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}
