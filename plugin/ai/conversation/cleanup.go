package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultRetention is how long inactive user state is kept.
	DefaultRetention = 24 * time.Hour
	// DefaultCleanupInterval is the default interval between sweeps.
	DefaultCleanupInterval = time.Hour
)

// CleanupConfig holds configuration for the cleanup job.
type CleanupConfig struct {
	Retention       time.Duration // How long to retain inactive users.
	CleanupInterval time.Duration // Interval between sweeps.
}

// Sweeper is any per-user state holder that can evict inactive entries.
type Sweeper interface {
	CleanupInactive(retention time.Duration) int
}

// CleanupJob periodically evicts inactive per-user state from every
// registered sweeper.
type CleanupJob struct {
	sweepers []Sweeper
	config   CleanupConfig

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewCleanupJob creates a cleanup job over the given sweepers.
func NewCleanupJob(config CleanupConfig, sweepers ...Sweeper) *CleanupJob {
	if config.Retention <= 0 {
		config.Retention = DefaultRetention
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}
	return &CleanupJob{sweepers: sweepers, config: config}
}

// Start begins the periodic sweep. Non-blocking; idempotent.
func (j *CleanupJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}
	j.running = true
	j.stopChan = make(chan struct{})

	go j.run(ctx)

	slog.Info("state cleanup job started",
		"retention", j.config.Retention,
		"interval", j.config.CleanupInterval)
}

// Stop halts the sweep.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}
	close(j.stopChan)
	j.running = false
}

func (j *CleanupJob) run(ctx context.Context) {
	ticker := time.NewTicker(j.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopChan:
			return
		case <-ticker.C:
			total := 0
			for _, sweeper := range j.sweepers {
				total += sweeper.CleanupInactive(j.config.Retention)
			}
			if total > 0 {
				slog.Info("evicted inactive user state", "count", total)
			}
		}
	}
}
