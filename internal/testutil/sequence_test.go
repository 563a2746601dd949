package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence_StartsAtZero(t *testing.T) {
	assert.Equal(t, int64(0), NewSequence().Current())
}

func TestSequence_NextIsMonotonic(t *testing.T) {
	seq := NewSequence()

	assert.Equal(t, int64(1), seq.Next())
	assert.Equal(t, int64(2), seq.Next())
	assert.Equal(t, int64(2), seq.Current())

	seq.Reset()
	assert.Equal(t, int64(0), seq.Current())
	assert.Equal(t, int64(1), seq.Next())
}

func TestSequence_Concurrent(t *testing.T) {
	seq := NewSequence()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq.Next()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), seq.Current())
}
