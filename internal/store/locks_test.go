// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package store

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestKeyLocks_SameStripeLockedOnce(t *testing.T) {
	t.Parallel()

	var l keyLocks
	// The same key twice must not self-deadlock.
	unlock := l.lock("p/a", "p/a")
	unlock()
	unlock = l.lock("p/a")
	unlock()
}

func TestKeyLocks_OverlappingSetsDoNotDeadlock(t *testing.T) {
	t.Parallel()

	var l keyLocks
	keys := make([]string, 16)
	for i := range keys {
		keys[i] = fmt.Sprintf("u/%d", i)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 0; i < 64; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				// Opposite argument orders on every other goroutine.
				a, b := keys[i%len(keys)], keys[(i+5)%len(keys)]
				if i%2 == 1 {
					a, b = b, a
				}
				unlock := l.lock(a, b)
				time.Sleep(time.Microsecond)
				unlock()
			}(i)
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("lock acquisition deadlocked")
	}
}

func TestKeyLocks_Serializes(t *testing.T) {
	t.Parallel()

	var (
		l       keyLocks
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.lock("p/hot")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
}
