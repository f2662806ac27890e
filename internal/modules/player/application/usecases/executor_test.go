package usecases

import (
	"errors"
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"
)

func TestGuildExecutor_FIFOWithinGuild(t *testing.T) {
	exec := newGuildExecutor()
	defer exec.Close()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		n := i
		exec.Submit(snowflake.ID(1), func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		})
	}
	wg.Wait()

	for i, n := range order {
		if n != i {
			t.Fatalf("jobs ran out of order: %v", order)
		}
	}
}

func TestGuildExecutor_DoPropagatesError(t *testing.T) {
	exec := newGuildExecutor()
	defer exec.Close()

	want := errors.New("boom")
	if err := exec.Do(snowflake.ID(1), func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if err := exec.Do(snowflake.ID(1), func() error { return nil }); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestGuildExecutor_DoAfterClose(t *testing.T) {
	exec := newGuildExecutor()
	exec.Close()

	if err := exec.Do(snowflake.ID(1), func() error { return nil }); !errors.Is(err, ErrShuttingDown) {
		t.Fatalf("expected ErrShuttingDown, got %v", err)
	}
}

func TestGuildExecutor_CloseIsIdempotent(t *testing.T) {
	exec := newGuildExecutor()
	exec.Close()
	exec.Close()
}
