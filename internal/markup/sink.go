package markup

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// ErrFull is returned with a short count when a sink cannot take the whole write
var ErrFull = errors.New("sink full")

// ErrClosed is returned when writing to a closed sink
var ErrClosed = errors.New("sink closed")

// Sink receives flushed markup. A sink that accepts only part of a write
// returns the accepted count with ErrFull, and Drain fires once it can accept more.
type Sink interface {
	Write(p []byte) (int, error)
	Drain() <-chan struct{}
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// WriterSink adapts a blocking io.Writer. It is never full.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink wraps w
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Drain always fires immediately
func (s *WriterSink) Drain() <-chan struct{} {
	return closedChan
}

// DefaultQueueLimit bounds the bytes a QueueSink holds before reporting ErrFull
const DefaultQueueLimit = 64 * 1024

const pumpChunk = 16 * 1024

// QueueSink queues writes in memory, up to a limit, and copies them to an
// io.Writer from a background goroutine. Close must be called to stop it.
type QueueSink struct {
	w     io.Writer
	limit int

	mu      sync.Mutex
	cond    *sync.Cond
	pending bytes.Buffer
	drain   chan struct{}
	closed  bool
	err     error

	done chan struct{}
}

// NewQueueSink starts a queue of at most limit bytes in front of w.
// A limit <= 0 uses DefaultQueueLimit.
func NewQueueSink(w io.Writer, limit int) *QueueSink {
	if limit <= 0 {
		limit = DefaultQueueLimit
	}
	s := &QueueSink{
		w:     w,
		limit: limit,
		drain: make(chan struct{}),
		done:  make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.pump()
	return s
}

// Write queues as much of p as fits
func (s *QueueSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return 0, s.err
	}
	if s.closed {
		return 0, ErrClosed
	}

	space := s.limit - s.pending.Len()
	if space <= 0 {
		return 0, ErrFull
	}
	n := len(p)
	if n > space {
		n = space
	}
	s.pending.Write(p[:n])
	s.cond.Signal()

	if n < len(p) {
		return n, ErrFull
	}
	return n, nil
}

// Drain fires when the queue has room again or the sink failed
func (s *QueueSink) Drain() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil || s.pending.Len() < s.limit {
		return closedChan
	}
	return s.drain
}

// Close waits for queued bytes to be written and returns the first write error.
// It does not close the underlying writer.
func (s *QueueSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()

	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *QueueSink) pump() {
	defer close(s.done)
	chunk := make([]byte, pumpChunk)

	for {
		s.mu.Lock()
		for s.pending.Len() == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.pending.Len() == 0 {
			s.mu.Unlock()
			return
		}
		n, _ := s.pending.Read(chunk)
		s.mu.Unlock()

		_, err := s.w.Write(chunk[:n])

		s.mu.Lock()
		if err != nil && s.err == nil {
			s.err = err
		}
		close(s.drain)
		s.drain = make(chan struct{})
		failed := s.err != nil
		s.mu.Unlock()

		if failed {
			return
		}
	}
}
