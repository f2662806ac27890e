package domain

import (
	"errors"

	"github.com/disgoorg/snowflake/v2"
)

// ErrQueueExists is returned by Create when a queue is already live for the guild.
var ErrQueueExists = errors.New("queue already exists for guild")

// ErrNoQueue is returned when an operation requires a live queue and none exists.
var ErrNoQueue = errors.New("no queue for guild")

// QueueRepository owns the mapping from guild id to GuildQueue. It is the
// only place queues are created and destroyed; map operations are
// concurrent-safe, while mutations of an individual queue are serialized by
// the playback service.
type QueueRepository interface {
	// Create makes a new empty queue. Fails with ErrQueueExists if one is live.
	Create(guildID snowflake.ID) (*GuildQueue, error)

	// Get returns the live queue or nil. Never creates as a side effect.
	Get(guildID snowflake.ID) *GuildQueue

	// Delete removes the queue entirely (on leave or end-of-queue).
	Delete(guildID snowflake.ID)

	// All returns a snapshot of every live queue.
	All() []*GuildQueue
}
