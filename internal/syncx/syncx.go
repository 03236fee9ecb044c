// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package syncx contains useful synchronization primitives.
package syncx

import "sync"

// Protect wraps T into [Protected].
func Protect[T any](val T) *Protected[T] { return &Protected[T]{val: val} }

// Protected provides synchronized access to a value of type T.
type Protected[T any] struct {
	mu  sync.RWMutex
	val T
}

// RAccess provides read access to the protected value.
// It executes the provided function f with the value under a read lock.
func (p *Protected[T]) RAccess(f func(T)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	f(p.val)
}

// Access provides write access to the protected value.
// It executes the provided function f with the value under a write lock.
func (p *Protected[T]) Access(f func(T)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f(p.val)
}

// Lazy represents a lazily computed value.
type Lazy[T any] struct {
	once sync.Once
	val  T
	err  error
}

// Get returns T, calling f to compute it, if necessary.
func (l *Lazy[T]) Get(f func() T) T {
	l.once.Do(func() { l.val = f() })
	return l.val
}

// GetErr returns T and an error, calling f to compute them, if necessary.
func (l *Lazy[T]) GetErr(f func() (T, error)) (T, error) {
	l.once.Do(func() { l.val, l.err = f() })
	return l.val, l.err
}

// Memo is like [Lazy], but remembers only a successful result: if f fails,
// the next Get calls it again.
type Memo[T any] struct {
	call sync.Mutex // serializes calls to f

	mu   sync.Mutex // guards done and val
	done bool
	val  T
}

// Get returns the memoized T, calling f to compute it if no call has
// succeeded yet. Concurrent callers wait for the call in flight.
func (m *Memo[T]) Get(f func() (T, error)) (T, error) {
	if val, ok := m.Peek(); ok {
		return val, nil
	}

	m.call.Lock()
	defer m.call.Unlock()
	if val, ok := m.Peek(); ok {
		return val, nil
	}
	val, err := f()
	if err != nil {
		var zero T
		return zero, err
	}
	m.mu.Lock()
	m.val, m.done = val, true
	m.mu.Unlock()
	return val, nil
}

// Peek returns the memoized value and whether it has been computed. It
// doesn't wait for a call to f in flight.
func (m *Memo[T]) Peek() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.val, m.done
}
