package logger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
)

// sink is one buffered output. A sink that fails once is skipped from then
// on; the others keep receiving lines.
type sink struct {
	w   *bufio.Writer
	err error
}

// asyncWriter hands log lines to one goroutine that fans them out to every
// sink and flushes whenever the queue runs dry.
type asyncWriter struct {
	queue   chan []byte
	flushes chan chan error
	done    chan struct{}
	once    sync.Once

	mu    sync.Mutex
	sinks []*sink
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		queue:   make(chan []byte, 256),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, &sink{w: bufio.NewWriterSize(out, bufSize)})
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				w.flush()
				return
			}
			w.fanOut(line)
			if len(w.queue) == 0 {
				w.flush()
			}
		case ack := <-w.flushes:
			open := w.drainQueued()
			ack <- w.flush()
			if !open {
				return
			}
		}
	}
}

// drainQueued writes every line already queued. It reports false once the
// queue is closed.
func (w *asyncWriter) drainQueued() bool {
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				return false
			}
			w.fanOut(line)
		default:
			return true
		}
	}
}

// Write queues a copy of p. It blocks while the queue is full and fails only
// when no sink is left to write to.
func (w *asyncWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if !w.healthy() {
		return w.err()
	}
	w.queue <- append([]byte(nil), p...)
	return nil
}

// Flush waits until everything queued so far reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushes <- ack:
		return <-ack
	case <-w.done:
		return w.err()
	}
}

// Close drains the queue and reports sink failures.
func (w *asyncWriter) Close() error {
	w.once.Do(func() { close(w.queue) })
	<-w.done
	return w.err()
}

func (w *asyncWriter) fanOut(line []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.sinks {
		if s.err != nil {
			continue
		}
		if _, err := s.w.Write(line); err != nil {
			s.err = err
		}
	}
}

func (w *asyncWriter) flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.sinks {
		if s.err == nil {
			s.err = s.w.Flush()
		}
	}
	return w.errLocked()
}

func (w *asyncWriter) healthy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.sinks {
		if s.err == nil {
			return true
		}
	}
	return len(w.sinks) == 0
}

func (w *asyncWriter) err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errLocked()
}

func (w *asyncWriter) errLocked() error {
	var errs []error
	for i, s := range w.sinks {
		if s.err != nil {
			errs = append(errs, fmt.Errorf("log sink %d: %w", i, s.err))
		}
	}
	return errors.Join(errs...)
}
