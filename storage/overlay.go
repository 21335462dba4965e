package storage

import (
	"errors"
	"sort"
	"sync"
)

// ErrOverlayClosed is returned when an overlay is used after Commit or Discard.
var ErrOverlayClosed = errors.New("storage: overlay already committed or discarded")

// Overlay stages writes on top of a Database. Reads see staged values first.
// Nothing reaches the base store until Commit, which applies every staged write
// in a single batch; Discard drops them. An overlay is used for exactly one
// state transition.
type Overlay struct {
	base Database

	mu      sync.Mutex
	writes  map[string][]byte
	deletes map[string]struct{}
	closed  bool
}

// NewOverlay creates an empty overlay over base.
func NewOverlay(base Database) *Overlay {
	return &Overlay{
		base:    base,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

func (o *Overlay) Get(key []byte) ([]byte, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrOverlayClosed
	}
	k := string(key)
	if value, ok := o.writes[k]; ok {
		o.mu.Unlock()
		return append([]byte(nil), value...), nil
	}
	if _, ok := o.deletes[k]; ok {
		o.mu.Unlock()
		return nil, ErrNotFound
	}
	o.mu.Unlock()
	return o.base.Get(key)
}

func (o *Overlay) Has(key []byte) (bool, error) {
	_, err := o.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (o *Overlay) Put(key []byte, value []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrOverlayClosed
	}
	k := string(key)
	delete(o.deletes, k)
	o.writes[k] = append([]byte(nil), value...)
	return nil
}

func (o *Overlay) Delete(key []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrOverlayClosed
	}
	k := string(key)
	delete(o.writes, k)
	o.deletes[k] = struct{}{}
	return nil
}

// Dirty reports the number of staged mutations.
func (o *Overlay) Dirty() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.writes) + len(o.deletes)
}

// Commit flushes staged writes to the base store atomically and closes the
// overlay.
func (o *Overlay) Commit() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrOverlayClosed
	}
	batch := o.base.NewBatch()
	keys := make([]string, 0, len(o.writes))
	for k := range o.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := batch.Put([]byte(k), o.writes[k]); err != nil {
			return err
		}
	}
	deleted := make([]string, 0, len(o.deletes))
	for k := range o.deletes {
		deleted = append(deleted, k)
	}
	sort.Strings(deleted)
	for _, k := range deleted {
		if err := batch.Delete([]byte(k)); err != nil {
			return err
		}
	}
	if batch.Len() > 0 {
		if err := batch.Write(); err != nil {
			return err
		}
	}
	o.closed = true
	o.writes = nil
	o.deletes = nil
	return nil
}

// Discard drops staged writes and closes the overlay.
func (o *Overlay) Discard() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.writes = nil
	o.deletes = nil
}
