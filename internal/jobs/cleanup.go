package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/memotag/memotag-server/internal/repository"
	"github.com/memotag/memotag-server/internal/session"
)

// expiringStore is implemented by session stores that need an explicit
// sweep. Redis expires keys itself, so only the memory store matches.
type expiringStore interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupJob periodically sweeps expired sessions and, when retention is
// configured, prunes old messages.
type CleanupJob struct {
	sessionStore session.Store
	messageRepo  repository.MessageRepository
	retention    time.Duration // 0 disables message pruning
	interval     time.Duration
	done         chan struct{}
}

func NewCleanupJob(
	sessionStore session.Store,
	messageRepo repository.MessageRepository,
	retention time.Duration,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		sessionStore: sessionStore,
		messageRepo:  messageRepo,
		retention:    retention,
		interval:     interval,
		done:         make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if store, ok := j.sessionStore.(expiringStore); ok {
		j.runCleanup(ctx, "expired sessions", store.DeleteExpired)
	}

	if j.retention > 0 {
		cutoff := time.Now().Add(-j.retention)
		j.runCleanup(ctx, "old messages", func(ctx context.Context) (int64, error) {
			return j.messageRepo.DeleteOlderThan(ctx, cutoff)
		})
	}
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
