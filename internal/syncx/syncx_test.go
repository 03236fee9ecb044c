// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package syncx

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.astrophena.name/kazuto/internal/testutil"
)

func TestProtected(t *testing.T) {
	t.Parallel()

	t.Run("read access", func(t *testing.T) {
		p := Protect(42)
		var result int
		p.RAccess(func(val int) {
			result = val
		})
		testutil.AssertEqual(t, result, 42)
	})

	t.Run("concurrent access", func(t *testing.T) {
		var i int
		p := Protect(&i)
		var wg sync.WaitGroup
		for range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.Access(func(val *int) {
					*val += 1
				})
			}()
		}
		wg.Wait()

		var result int
		p.RAccess(func(val *int) { result = *val })
		testutil.AssertEqual(t, result, 100)
	})
}

func TestLazy(t *testing.T) {
	t.Parallel()

	var (
		l     Lazy[int]
		calls int
	)
	for range 3 {
		v, err := l.GetErr(func() (int, error) {
			calls++
			return 0, errors.New("boom")
		})
		testutil.AssertEqual(t, v, 0)
		if err == nil {
			t.Fatal("want error, got nil")
		}
	}
	testutil.AssertEqual(t, calls, 1)
}

func TestMemo(t *testing.T) {
	t.Parallel()

	t.Run("retries until success", func(t *testing.T) {
		var (
			m     Memo[string]
			calls int
		)
		fail := func() (string, error) {
			calls++
			return "", errors.New("unreachable")
		}
		succeed := func() (string, error) {
			calls++
			return "client", nil
		}

		if _, err := m.Get(fail); err == nil {
			t.Fatal("want error, got nil")
		}
		if _, ok := m.Peek(); ok {
			t.Fatal("failed call must not be memoized")
		}
		v, err := m.Get(succeed)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, v, "client")
		v, err = m.Get(fail)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, v, "client")
		testutil.AssertEqual(t, calls, 2)
	})

	t.Run("concurrent callers share one call", func(t *testing.T) {
		var (
			m     Memo[int]
			calls atomic.Int32
			wg    sync.WaitGroup
		)
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := m.Get(func() (int, error) {
					calls.Add(1)
					return 7, nil
				})
				if err != nil || v != 7 {
					t.Errorf("Get = %d, %v", v, err)
				}
			}()
		}
		wg.Wait()
		testutil.AssertEqual(t, calls.Load(), int32(1))
	})

	t.Run("peek does not wait for a slow call", func(t *testing.T) {
		var m Memo[string]
		started, release := make(chan struct{}), make(chan struct{})
		got := make(chan string, 1)
		go func() {
			v, _ := m.Get(func() (string, error) {
				close(started)
				<-release
				return "client", nil
			})
			got <- v
		}()

		<-started
		peeked := make(chan bool, 1)
		go func() {
			_, ok := m.Peek()
			peeked <- ok
		}()
		select {
		case ok := <-peeked:
			if ok {
				t.Fatal("Peek reported a value while the call is in flight")
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Peek blocked on the call in flight")
		}

		close(release)
		testutil.AssertEqual(t, <-got, "client")
		v, ok := m.Peek()
		testutil.AssertEqual(t, ok, true)
		testutil.AssertEqual(t, v, "client")
	})
}
