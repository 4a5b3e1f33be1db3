package util

import (
	"errors"
	"sync"
	"testing"
)

type recordingCloser struct {
	order *[]int
	id    int
	err   error
	mu    *sync.Mutex
}

func (c *recordingCloser) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.order = append(*c.order, c.id)
	return c.err
}

// TestRegisterAndCloseAll verifies registered closers all run and the list clears.
func TestRegisterAndCloseAll(t *testing.T) {
	resetClosers(t)

	var order []int
	var mu sync.Mutex
	for i := 0; i < 3; i++ {
		RegisterCloser(&recordingCloser{order: &order, id: i, mu: &mu})
	}

	CloseAll()

	if len(order) != 3 {
		t.Fatalf("Expected 3 closers to run, got %d", len(order))
	}

	// Second CloseAll is a no-op on the cleared list.
	CloseAll()
	if len(order) != 3 {
		t.Errorf("CloseAll ran closers twice: %v", order)
	}
}

// TestCloseAllReverseOrder verifies closers run in reverse registration order.
func TestCloseAllReverseOrder(t *testing.T) {
	resetClosers(t)

	var order []int
	var mu sync.Mutex
	for i := 0; i < 4; i++ {
		RegisterCloser(&recordingCloser{order: &order, id: i, mu: &mu})
	}

	CloseAll()

	want := []int{3, 2, 1, 0}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("Close order = %v, want %v", order, want)
		}
	}
}

// TestCloseAllWithErrors verifies a failing closer does not stop the rest.
func TestCloseAllWithErrors(t *testing.T) {
	resetClosers(t)

	var order []int
	var mu sync.Mutex
	RegisterCloser(&recordingCloser{order: &order, id: 0, mu: &mu})
	RegisterCloser(&recordingCloser{order: &order, id: 1, err: errors.New("close failed"), mu: &mu})
	RegisterCloser(&recordingCloser{order: &order, id: 2, mu: &mu})

	CloseAll()

	if len(order) != 3 {
		t.Errorf("Expected all 3 closers to run despite error, got %d", len(order))
	}
}

// TestRegisterNilCloser verifies nil closers are ignored.
func TestRegisterNilCloser(t *testing.T) {
	resetClosers(t)

	RegisterCloser(nil)
	CloseAll()
}

// TestRegisterCloserThreadSafety exercises concurrent registration.
func TestRegisterCloserThreadSafety(t *testing.T) {
	resetClosers(t)

	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			RegisterCloser(&recordingCloser{order: &order, id: id, mu: &mu})
		}(i)
	}
	wg.Wait()

	CloseAll()

	if len(order) != 16 {
		t.Errorf("Expected 16 closers to run, got %d", len(order))
	}
}

// resetClosers saves and restores the package closer list around a test.
func resetClosers(t *testing.T) {
	t.Helper()
	closeMutex.Lock()
	saved := closeOnExit
	closeOnExit = nil
	closeMutex.Unlock()
	t.Cleanup(func() {
		closeMutex.Lock()
		closeOnExit = saved
		closeMutex.Unlock()
	})
}
