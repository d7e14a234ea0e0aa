package conversation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) CleanupInactive(time.Duration) int {
	c.calls.Add(1)
	return 1
}

func TestCleanupJob_SweepsAllSweepers(t *testing.T) {
	a, b := &countingSweeper{}, &countingSweeper{}
	job := NewCleanupJob(CleanupConfig{
		Retention:       time.Hour,
		CleanupInterval: 10 * time.Millisecond,
	}, a, b)

	job.Start(context.Background())
	defer job.Stop()

	assert.Eventually(t, func() bool {
		return a.calls.Load() > 0 && b.calls.Load() > 0
	}, time.Second, 5*time.Millisecond)
}

func TestCleanupJob_StartIdempotent(t *testing.T) {
	job := NewCleanupJob(CleanupConfig{CleanupInterval: time.Hour}, &countingSweeper{})

	job.Start(context.Background())
	job.Start(context.Background())
	job.Stop()
	job.Stop()
}

func TestCleanupJob_Defaults(t *testing.T) {
	job := NewCleanupJob(CleanupConfig{})
	assert.Equal(t, DefaultRetention, job.config.Retention)
	assert.Equal(t, DefaultCleanupInterval, job.config.CleanupInterval)
}
