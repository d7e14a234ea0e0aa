package conversation

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_HistoryBound(t *testing.T) {
	s := New(5, nil)

	// N+3 messages retain only the last N.
	for i := 0; i < 8; i++ {
		s.AddMessage("u1", fmt.Sprintf("q%d", i), fmt.Sprintf("r%d", i), 0.9)
	}

	history := s.History("u1")
	require.Len(t, history, 5)
	assert.Equal(t, "q3", history[0].Query)
	assert.Equal(t, "q7", history[4].Query)
}

func TestState_GetContext(t *testing.T) {
	s := New(5, nil)

	t.Run("EmptyWithoutHistory", func(t *testing.T) {
		assert.Equal(t, "", s.GetContext("nobody"))
	})

	t.Run("LastTwoTurnsOnly", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			s.AddMessage("u1", fmt.Sprintf("q%d", i), fmt.Sprintf("r%d", i), 0.9)
		}

		ctx := s.GetContext("u1")
		assert.NotContains(t, ctx, "q1")
		assert.Contains(t, ctx, "User: q2")
		assert.Contains(t, ctx, "User: q3")
		assert.Contains(t, ctx, "Bot: r3")
	})

	t.Run("ResponseTruncatedTo100Runes", func(t *testing.T) {
		long := strings.Repeat("א", 150)
		s.AddMessage("u2", "q", long, 0.9)

		ctx := s.GetContext("u2")
		assert.Contains(t, ctx, strings.Repeat("א", 100))
		assert.NotContains(t, ctx, strings.Repeat("א", 101))
	})
}

func TestState_ClearContextKeepsMemory(t *testing.T) {
	s := New(5, nil)
	s.AddMessage("u1", "q", "r", 0.9)
	s.Save("u1", "last_order_id", "12345")

	s.ClearContext("u1")

	assert.False(t, s.HasContext("u1"))
	v, ok := s.Get("u1", "last_order_id")
	require.True(t, ok)
	assert.Equal(t, "12345", v)
}

func TestState_ClearMemoryKeepsContext(t *testing.T) {
	s := New(5, nil)
	s.AddMessage("u1", "q", "r", 0.9)
	s.Save("u1", "k", "v")

	s.ClearMemory("u1")

	assert.True(t, s.HasContext("u1"))
	assert.False(t, s.Has("u1", "k"))
}

func TestState_UsersIndependent(t *testing.T) {
	s := New(5, nil)
	s.AddMessage("u1", "q", "r", 0.9)

	assert.True(t, s.HasContext("u1"))
	assert.False(t, s.HasContext("u2"))
	assert.Equal(t, "", s.GetContext("u2"))
}

func TestState_CleanupInactive(t *testing.T) {
	s := New(5, nil)
	s.AddMessage("idle", "q", "r", 0.9)
	s.AddMessage("active", "q", "r", 0.9)

	// Backdate the idle user.
	s.mu.Lock()
	s.users["idle"].lastActive = time.Now().Add(-48 * time.Hour)
	s.mu.Unlock()

	evicted := s.CleanupInactive(24 * time.Hour)
	assert.Equal(t, 1, evicted)
	assert.False(t, s.HasContext("idle"))
	assert.True(t, s.HasContext("active"))
}

func TestState_ConcurrentSameUser(t *testing.T) {
	s := New(5, nil)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.AddMessage("u1", "q", "r", 0.5)
				s.GetContext("u1")
				s.Save("u1", "k", g)
			}
		}(g)
	}
	wg.Wait()

	assert.Len(t, s.History("u1"), 5)
}
