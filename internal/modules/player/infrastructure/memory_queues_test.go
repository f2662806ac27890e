package infrastructure

import (
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

func TestMemoryQueueRepository_CreateAndGet(t *testing.T) {
	repo := NewMemoryQueueRepository()
	guildID := snowflake.ID(123)

	if repo.Get(guildID) != nil {
		t.Fatal("expected nil for non-existent queue")
	}

	queue, err := repo.Create(guildID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if queue.GuildID() != guildID {
		t.Errorf("expected guild %d, got %d", guildID, queue.GuildID())
	}

	if repo.Get(guildID) != queue {
		t.Error("expected same queue instance")
	}
	if repo.Get(snowflake.ID(456)) != nil {
		t.Error("expected nil for different guild")
	}
}

func TestMemoryQueueRepository_CreateDuplicate(t *testing.T) {
	repo := NewMemoryQueueRepository()
	guildID := snowflake.ID(123)

	if _, err := repo.Create(guildID); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := repo.Create(guildID); err != domain.ErrQueueExists {
		t.Fatalf("expected ErrQueueExists, got %v", err)
	}
}

func TestMemoryQueueRepository_Delete(t *testing.T) {
	repo := NewMemoryQueueRepository()
	guildID := snowflake.ID(123)

	if _, err := repo.Create(guildID); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	repo.Delete(guildID)

	if repo.Get(guildID) != nil {
		t.Error("expected nil after delete")
	}

	// Deleting a non-existent queue is a no-op.
	repo.Delete(guildID)
}

func TestMemoryQueueRepository_All(t *testing.T) {
	repo := NewMemoryQueueRepository()

	for i := 1; i <= 3; i++ {
		if _, err := repo.Create(snowflake.ID(i)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	if got := len(repo.All()); got != 3 {
		t.Errorf("expected 3 queues, got %d", got)
	}
	if repo.Count() != 3 {
		t.Errorf("expected count 3, got %d", repo.Count())
	}
}

func TestMemoryQueueRepository_ConcurrentAccess(t *testing.T) {
	repo := NewMemoryQueueRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			guildID := snowflake.ID(n)
			_, _ = repo.Create(guildID)
			_ = repo.Get(guildID)
			_ = repo.All()
			repo.Delete(guildID)
		}(i)
	}
	wg.Wait()

	if repo.Count() != 0 {
		t.Errorf("expected empty repository, got %d", repo.Count())
	}
}
