// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package completion

import (
	"slices"
	"sync"
	"testing"

	"go.astrophena.name/kazuto/internal/testutil"
)

func TestRotatorRoundRobin(t *testing.T) {
	r := NewRotator("a", "", "b", "c")
	testutil.AssertEqual(t, r.Len(), 3)

	var got []string
	for range 7 {
		key, _ := r.Next()
		got = append(got, key)
	}
	testutil.AssertEqual(t, got, []string{"a", "b", "c", "a", "b", "c", "a"})
	testutil.AssertEqual(t, r.Cursor(), 1)
}

func TestRotatorConcurrent(t *testing.T) {
	const n = 64
	keys := make([]string, n)
	for i := range keys {
		keys[i] = string(rune('A' + i))
	}
	r := NewRotator(keys...)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, idx := r.Next()
			mu.Lock()
			got = append(got, idx)
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Every position is handed out exactly once.
	slices.Sort(got)
	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	testutil.AssertEqual(t, got, want)
	testutil.AssertEqual(t, r.Cursor(), 0)
}
