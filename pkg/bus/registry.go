package bus

import (
	"reflect"
	"sync"
)

// Registry holds one channel per message type, created on first use.
// The registry keeps its own sender for every channel so channels stay open
// until Close.
type Registry struct {
	mu       sync.Mutex
	capacity int
	channels map[reflect.Type]registryEntry
	closed   bool
}

type registryEntry struct {
	sender any // *Sender[T]
	close  func()
}

// NewRegistry creates an empty registry whose channels use the given ring
// buffer capacity.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		capacity: capacity,
		channels: make(map[reflect.Type]registryEntry),
	}
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// held returns the registry's sender for T, creating the channel when create
// is set.
func held[T any](r *Registry, create bool) (*Sender[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false
	}
	key := typeKey[T]()
	if e, ok := r.channels[key]; ok {
		return e.sender.(*Sender[T]), true
	}
	if !create {
		return nil, false
	}
	s := New[T](r.capacity)
	r.channels[key] = registryEntry{sender: s, close: s.Close}
	return s, true
}

// SenderOf returns a new sender handle for T's channel. The caller owns the
// handle and should Close it when done.
func SenderOf[T any](r *Registry) *Sender[T] {
	s, ok := held[T](r, true)
	if !ok {
		closed := New[T](r.capacity)
		closed.Close()
		return closed
	}
	return s.Clone()
}

// ReceiverOf subscribes to T's channel.
func ReceiverOf[T any](r *Registry) *Receiver[T] {
	s, ok := held[T](r, true)
	if !ok {
		closed := New[T](r.capacity)
		rx := closed.Subscribe()
		closed.Close()
		return rx
	}
	return s.Subscribe()
}

// TrySend publishes v on T's channel if one exists. It never creates a
// channel.
func TrySend[T any](r *Registry, v T) (int, error) {
	s, ok := held[T](r, false)
	if !ok {
		return 0, &SendError[T]{Value: v, Reason: ErrNoChannel}
	}
	return s.Send(v)
}

// Close drops the registry's senders. Channels close once the remaining
// external senders are closed too.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, e := range r.channels {
		e.close()
	}
}
