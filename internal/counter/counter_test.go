package counter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripedAddLoad(t *testing.T) {
	c := New()
	c.Add(5)
	c.Add(-2)
	assert.Equal(t, int64(3), c.Load())
}

func TestStripedConcurrentIncrements(t *testing.T) {
	c := NewSized(16)
	const goroutines = 64
	const perGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines*perGoroutine), c.Load())
}

func TestStripedReset(t *testing.T) {
	c := NewSized(4)
	c.Add(10)
	c.Reset()
	assert.Equal(t, int64(0), c.Load())
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 5: 8, 8: 8, 9: 16}
	for in, want := range cases {
		assert.Equal(t, want, nextPow2(in), "nextPow2(%d)", in)
	}
}
