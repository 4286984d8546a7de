package student

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocker(t *testing.T) {
	l := newLocker()
	// each counter is only guarded by its key lock
	counts := map[string]*int{"a": new(int), "b": new(int)}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		key := []string{"a", "b"}[i%2]
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(key)
			defer unlock()
			*counts[key]++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, *counts["a"])
	assert.Equal(t, 50, *counts["b"])
	assert.Empty(t, l.locks, "released keys are dropped")
}
