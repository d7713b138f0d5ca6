package components

import (
	"sync"
	"testing"

	"ledger-api/internal/components"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestContainerSingleton verifies GetInstance always returns the same
// Container, built once behind its sync.Once regardless of how many times
// it is called.
func TestContainerSingleton(t *testing.T) {
	t.Setenv("LEDGER_STORE", "memory")

	c1, err := components.GetInstance()
	require.NoError(t, err)
	c2, err := components.GetInstance()
	require.NoError(t, err)

	assert.Same(t, c1, c2, "container should be a singleton")
}

// TestConcurrentGetInstanceAccess verifies GetInstance is safe to call from
// many goroutines at once and still only builds one Container.
func TestConcurrentGetInstanceAccess(t *testing.T) {
	t.Setenv("LEDGER_STORE", "memory")

	const numGoroutines = 100
	var wg sync.WaitGroup
	containers := make([]*components.Container, numGoroutines)

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(index int) {
			defer wg.Done()
			c, err := components.GetInstance()
			if err != nil {
				t.Errorf("GetInstance failed: %v", err)
				return
			}
			containers[index] = c
		}(i)
	}
	wg.Wait()

	first := containers[0]
	for i := 1; i < numGoroutines; i++ {
		assert.Same(t, first, containers[i], "container instance %d should match the first", i)
	}
}
