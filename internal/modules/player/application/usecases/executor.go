package usecases

import (
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// guildJobBufferSize is the per-guild backlog of queued operations.
const guildJobBufferSize = 64

// guildExecutor serializes all operations for a guild onto a single worker
// goroutine, network round-trips included, so commands are applied in
// issuance order and a command in flight is never overtaken. Guilds are
// fully independent of each other.
type guildExecutor struct {
	mu      sync.Mutex
	workers map[snowflake.ID]chan func()
	done    chan struct{}
	wg      sync.WaitGroup
}

func newGuildExecutor() *guildExecutor {
	return &guildExecutor{
		workers: make(map[snowflake.ID]chan func()),
		done:    make(chan struct{}),
	}
}

// jobs returns the guild's job channel, spawning its worker on first use.
func (e *guildExecutor) jobs(guildID snowflake.ID) chan func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, ok := e.workers[guildID]
	if !ok {
		ch = make(chan func(), guildJobBufferSize)
		e.workers[guildID] = ch
		e.wg.Add(1)
		go e.run(ch)
	}
	return ch
}

func (e *guildExecutor) run(jobs chan func()) {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case job := <-jobs:
			job()
		}
	}
}

// Do runs fn on the guild's worker and waits for its result.
func (e *guildExecutor) Do(guildID snowflake.ID, fn func() error) error {
	errCh := make(chan error, 1)
	select {
	case e.jobs(guildID) <- func() { errCh <- fn() }:
	case <-e.done:
		return ErrShuttingDown
	}

	select {
	case err := <-errCh:
		return err
	case <-e.done:
		return ErrShuttingDown
	}
}

// Submit enqueues fn on the guild's worker without waiting. If the guild's
// backlog is full the job is dropped with a warning rather than stalling
// the caller, which may be serving other guilds.
func (e *guildExecutor) Submit(guildID snowflake.ID, fn func()) {
	select {
	case e.jobs(guildID) <- fn:
	case <-e.done:
	default:
		slog.Warn("guild job backlog full, dropping job", "guild", guildID)
	}
}

// Close stops all workers. Queued jobs that have not started are dropped.
func (e *guildExecutor) Close() {
	e.mu.Lock()
	select {
	case <-e.done:
		e.mu.Unlock()
		return
	default:
	}
	close(e.done)
	e.mu.Unlock()

	e.wg.Wait()
}
