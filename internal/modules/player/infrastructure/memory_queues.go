package infrastructure

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/roxyplus/roxy/internal/modules/player/domain"
)

// MemoryQueueRepository is an in-memory implementation of QueueRepository.
type MemoryQueueRepository struct {
	mu     sync.RWMutex
	queues map[snowflake.ID]*domain.GuildQueue
}

// NewMemoryQueueRepository creates a new MemoryQueueRepository.
func NewMemoryQueueRepository() *MemoryQueueRepository {
	return &MemoryQueueRepository{
		queues: make(map[snowflake.ID]*domain.GuildQueue),
	}
}

// Create makes an empty queue for the guild.
func (r *MemoryQueueRepository) Create(guildID snowflake.ID) (*domain.GuildQueue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.queues[guildID]; ok {
		return nil, domain.ErrQueueExists
	}
	queue := domain.NewGuildQueue(guildID)
	r.queues[guildID] = queue
	return queue, nil
}

// Get returns the guild's queue, or nil if none exists.
func (r *MemoryQueueRepository) Get(guildID snowflake.ID) *domain.GuildQueue {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.queues[guildID]
}

// Delete removes the guild's queue.
func (r *MemoryQueueRepository) Delete(guildID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.queues, guildID)
}

// All returns every live queue.
func (r *MemoryQueueRepository) All() []*domain.GuildQueue {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.GuildQueue, 0, len(r.queues))
	for _, queue := range r.queues {
		result = append(result, queue)
	}
	return result
}

// Count returns the number of live queues (for testing/monitoring).
func (r *MemoryQueueRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.queues)
}

// Ensure MemoryQueueRepository implements QueueRepository.
var _ domain.QueueRepository = (*MemoryQueueRepository)(nil)
