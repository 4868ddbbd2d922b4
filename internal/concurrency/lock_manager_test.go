package concurrency

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockManager_SameKeySameLock(t *testing.T) {
	lm := NewLockManager()
	assert.Same(t, lm.GetLock("trade-1"), lm.GetLock("trade-1"))
	assert.NotSame(t, lm.GetLock("trade-1"), lm.GetLock("trade-2"))
}

func TestLockManager_SerializesCriticalSection(t *testing.T) {
	lm := NewLockManager()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu := lm.GetLock("trade-1")
			mu.Lock()
			counter++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}
