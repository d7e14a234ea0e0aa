// Package conversation maintains per-user dialogue state: a bounded turn
// history used to build context prefixes, and an independent key/value
// memory for facts that outlive single turns (e.g. the last order id).
package conversation

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultMaxHistory bounds the per-user turn history.
	DefaultMaxHistory = 5

	// contextTurns is how many trailing turns feed the context prefix.
	contextTurns = 2

	// contextResponseLimit caps each quoted response, in runes, to keep
	// prompt growth bounded.
	contextResponseLimit = 100
)

// Turn is a single completed query/response exchange.
type Turn struct {
	Query      string
	Response   string
	Confidence float64
	Timestamp  time.Time
}

type userState struct {
	mu         sync.Mutex
	turns      []Turn
	memory     map[string]any
	lastActive time.Time
}

// State owns all conversation turns and memory, keyed by user id.
// Operations on different users never block each other; operations on the
// same user are serialized by that user's lock.
type State struct {
	mu         sync.RWMutex
	users      map[string]*userState
	maxHistory int
	logger     *slog.Logger
}

// New creates an empty conversation state.
func New(maxHistory int, logger *slog.Logger) *State {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		users:      make(map[string]*userState),
		maxHistory: maxHistory,
		logger:     logger,
	}
}

func (s *State) user(userID string) *userState {
	s.mu.RLock()
	u, ok := s.users[userID]
	s.mu.RUnlock()
	if ok {
		return u
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok = s.users[userID]; ok {
		return u
	}
	u = &userState{memory: make(map[string]any), lastActive: time.Now()}
	s.users[userID] = u
	return u
}

// AddMessage appends a completed turn, dropping the oldest beyond the
// configured history bound.
func (s *State) AddMessage(userID, query, response string, confidence float64) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.turns = append(u.turns, Turn{
		Query:      query,
		Response:   response,
		Confidence: confidence,
		Timestamp:  time.Now(),
	})
	if len(u.turns) > s.maxHistory {
		u.turns = u.turns[len(u.turns)-s.maxHistory:]
	}
	u.lastActive = time.Now()

	s.logger.Debug("turn recorded", "user_id", userID, "history_len", len(u.turns))
}

// GetContext builds a context prefix from the last two turns, quoting each
// response truncated to its first 100 runes. Returns "" when the user has
// no history.
func (s *State) GetContext(userID string) string {
	s.mu.RLock()
	u, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return ""
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.turns) == 0 {
		return ""
	}

	start := len(u.turns) - contextTurns
	if start < 0 {
		start = 0
	}

	parts := make([]string, 0, contextTurns)
	for _, turn := range u.turns[start:] {
		parts = append(parts, fmt.Sprintf("Previous:\nUser: %s\nBot: %s",
			turn.Query, truncateRunes(turn.Response, contextResponseLimit)))
	}
	return strings.Join(parts, "\n\n")
}

// HasContext reports whether the user has any recorded turns.
func (s *State) HasContext(userID string) bool {
	s.mu.RLock()
	u, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.turns) > 0
}

// ClearContext drops the user's turn history. Memory is untouched.
func (s *State) ClearContext(userID string) {
	s.mu.RLock()
	u, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	u.mu.Lock()
	u.turns = nil
	u.mu.Unlock()
	s.logger.Info("conversation context cleared", "user_id", userID)
}

// History returns a copy of the user's retained turns.
func (s *State) History(userID string) []Turn {
	s.mu.RLock()
	u, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Turn, len(u.turns))
	copy(out, u.turns)
	return out
}

// Save stores a memory value for the user.
func (s *State) Save(userID, key string, value any) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.memory[key] = value
	u.lastActive = time.Now()
}

// Get retrieves a memory value for the user.
func (s *State) Get(userID, key string) (any, bool) {
	s.mu.RLock()
	u, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	value, ok := u.memory[key]
	return value, ok
}

// Has reports whether the user has a memory value under key.
func (s *State) Has(userID, key string) bool {
	_, ok := s.Get(userID, key)
	return ok
}

// ClearMemory drops the user's memory. The turn history is untouched.
func (s *State) ClearMemory(userID string) {
	s.mu.RLock()
	u, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	u.mu.Lock()
	u.memory = make(map[string]any)
	u.mu.Unlock()
}

// CleanupInactive removes users idle for longer than retention and returns
// how many were evicted. Long-running deployments would otherwise grow the
// user map without bound.
func (s *State) CleanupInactive(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for userID, u := range s.users {
		u.mu.Lock()
		idle := u.lastActive.Before(cutoff)
		u.mu.Unlock()
		if idle {
			delete(s.users, userID)
			evicted++
		}
	}
	return evicted
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
