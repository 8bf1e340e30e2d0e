// Package bus is a typed, in-process broadcast bus. Every message sent on a
// channel is delivered to every receiver subscribed at the time, each receiver
// reading at its own pace from a bounded ring buffer. Receivers that fall
// more than the buffer capacity behind observe a LaggedError and resume from
// the oldest retained message; senders never wait for slow receivers.
package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultCapacity is the ring buffer size used when none is configured.
const DefaultCapacity = 16

var (
	// ErrClosed is returned by receivers once every sender is gone and all
	// retained messages have been read.
	ErrClosed = errors.New("bus: channel closed")
	// ErrEmpty is returned by TryRecv when no message is pending.
	ErrEmpty = errors.New("bus: no pending message")
	// ErrNoReceivers means a send reached nobody.
	ErrNoReceivers = errors.New("bus: no receivers")
	// ErrNoChannel means no channel exists for the message type.
	ErrNoChannel = errors.New("bus: no channel for type")
)

// LaggedError reports how many messages a receiver missed.
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("bus: receiver lagged, %d messages skipped", e.Skipped)
}

// SendError hands an undelivered value back to the sender.
type SendError[T any] struct {
	Value  T
	Reason error
}

func (e *SendError[T]) Error() string {
	return "bus: send failed: " + e.Reason.Error()
}

func (e *SendError[T]) Unwrap() error { return e.Reason }

// channel is the shared state behind senders and receivers.
type channel[T any] struct {
	mu        sync.Mutex
	buf       []T
	head      uint64 // sequence number of the next message
	senders   int
	receivers int
	closed    bool
	wake      chan struct{} // closed and replaced on every send or close
}

func newChannel[T any](capacity int) *channel[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &channel[T]{
		buf:  make([]T, capacity),
		wake: make(chan struct{}),
	}
}

func (c *channel[T]) capacity() uint64 { return uint64(len(c.buf)) }

// notifyLocked wakes every waiting receiver.
func (c *channel[T]) notifyLocked() {
	close(c.wake)
	c.wake = make(chan struct{})
}

// New creates a channel and returns its first sender.
func New[T any](capacity int) *Sender[T] {
	ch := newChannel[T](capacity)
	ch.senders = 1
	return &Sender[T]{ch: ch}
}

// Sender publishes values to every current receiver. Handles are
// reference-counted: the channel closes when the last handle is closed.
type Sender[T any] struct {
	ch      *channel[T]
	once    sync.Once
	dropped bool // guarded by ch.mu
}

// Clone returns a new handle to the same channel.
func (s *Sender[T]) Clone() *Sender[T] {
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	s.ch.senders++
	return &Sender[T]{ch: s.ch}
}

// Send publishes v and returns the number of receivers that will observe it.
// With no receivers the value is handed back in a *SendError.
func (s *Sender[T]) Send(v T) (int, error) {
	c := s.ch
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || s.dropped {
		return 0, &SendError[T]{Value: v, Reason: ErrClosed}
	}
	if c.receivers == 0 {
		return 0, &SendError[T]{Value: v, Reason: ErrNoReceivers}
	}
	c.buf[c.head%c.capacity()] = v
	c.head++
	c.notifyLocked()
	return c.receivers, nil
}

// Subscribe returns a receiver that sees every message sent from now on.
func (s *Sender[T]) Subscribe() *Receiver[T] {
	c := s.ch
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receivers++
	return &Receiver[T]{ch: c, next: c.head}
}

// ReceiverCount returns the number of live receivers.
func (s *Sender[T]) ReceiverCount() int {
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	return s.ch.receivers
}

// Close releases this handle. It is idempotent.
func (s *Sender[T]) Close() {
	s.once.Do(func() {
		c := s.ch
		c.mu.Lock()
		defer c.mu.Unlock()
		s.dropped = true
		c.senders--
		if c.senders == 0 && !c.closed {
			c.closed = true
			c.notifyLocked()
		}
	})
}

// Receiver reads messages from its subscription point onward.
type Receiver[T any] struct {
	ch   *channel[T]
	next uint64
	once sync.Once
}

// tryRecvLocked returns the next message if one is available. When ok is
// false and err is nil the caller should wait on wake.
func (r *Receiver[T]) tryRecvLocked() (v T, ok bool, err error) {
	c := r.ch
	if c.head-r.next > c.capacity() {
		oldest := c.head - c.capacity()
		skipped := oldest - r.next
		r.next = oldest
		return v, false, &LaggedError{Skipped: skipped}
	}
	if r.next < c.head {
		v = c.buf[r.next%c.capacity()]
		r.next++
		return v, true, nil
	}
	if c.closed {
		return v, false, ErrClosed
	}
	return v, false, nil
}

// Recv blocks until a message is available, the receiver lags, the channel
// closes, or ctx is done.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	for {
		r.ch.mu.Lock()
		v, ok, err := r.tryRecvLocked()
		wake := r.ch.wake
		r.ch.mu.Unlock()
		if ok || err != nil {
			return v, err
		}
		select {
		case <-wake:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// TryRecv returns the next message without waiting; ErrEmpty if none.
func (r *Receiver[T]) TryRecv() (T, error) {
	r.ch.mu.Lock()
	defer r.ch.mu.Unlock()
	v, ok, err := r.tryRecvLocked()
	if !ok && err == nil {
		return v, ErrEmpty
	}
	return v, err
}

// Len returns how many messages are pending, capped at the capacity.
func (r *Receiver[T]) Len() int {
	r.ch.mu.Lock()
	defer r.ch.mu.Unlock()
	return int(min(r.ch.head-r.next, r.ch.capacity()))
}

// Close unsubscribes the receiver. It is idempotent.
func (r *Receiver[T]) Close() {
	r.once.Do(func() {
		r.ch.mu.Lock()
		defer r.ch.mu.Unlock()
		r.ch.receivers--
	})
}
