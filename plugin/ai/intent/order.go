// Package intent recognizes queries the retrieval pipeline should not
// answer: order-status requests, which run a small per-user state machine,
// and informational questions covered by canned tool answers.
package intent

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hadasco/deskrag/internal/i18n"
)

// Order-related keywords, matched case-insensitively as substrings.
var orderKeywords = []string{
	"הזמנה",
	"מספר הזמנה",
	"מעקב",
	"tracking",
	"order",
	"משלוח שלי",
	"סטטוס",
	"סטאטוס",
	"איפה",
	"הגיע",
}

// Order-number patterns, tried in this order. The first match wins.
var orderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`ORD-\d{5,}`),
	regexp.MustCompile(`#\d{5,}`),
	regexp.MustCompile(`\b\d{5,}\b`),
}

type pendingOrder struct {
	waiting    bool
	lastActive time.Time
}

// Detector tracks, per user, whether the conversation is waiting for an
// order number. Idle is the zero state; a recognized order query without a
// number moves the user to waiting, and a supplied number moves them back.
type Detector struct {
	mu      sync.Mutex
	pending map[string]*pendingOrder
	logger  *slog.Logger
}

// NewDetector creates a detector with no users in the waiting state.
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		pending: make(map[string]*pendingOrder),
		logger:  logger,
	}
}

// IsOrderQuery reports whether the query should take the order route.
// True when the query carries an order keyword, when the user is waiting
// for an order number and the query contains one, or when the query
// contains an order number regardless of state.
func (d *Detector) IsOrderQuery(query, userID string) bool {
	lower := strings.ToLower(query)
	for _, kw := range orderKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	hasNumber := containsOrderNumber(query)
	if d.IsWaiting(userID) && hasNumber {
		return true
	}
	return hasNumber
}

// ExtractOrderNumber returns the first order-number token found in the
// query, exactly as matched, including any ORD- or # prefix.
func (d *Detector) ExtractOrderNumber(query string) (string, bool) {
	for _, pattern := range orderPatterns {
		if m := pattern.FindString(query); m != "" {
			return m, true
		}
	}
	return "", false
}

// HandleOrderQuery advances the state machine for one order-route query.
// When the query carries an order number the waiting state is cleared and
// a canned lookup message is returned with the raw number; otherwise the
// user enters the waiting state and is asked for the number.
func (d *Detector) HandleOrderQuery(query, userID string) (message string, orderNumber string, waiting bool) {
	lang := i18n.DetectLang(query)

	if number, ok := d.ExtractOrderNumber(query); ok {
		d.setWaiting(userID, false)
		d.logger.Debug("order number extracted", "user_id", userID, "order_number", number)
		return i18n.Render(i18n.TemplateOrderLookup, lang, number, CleanOrderNumber(number)), number, false
	}

	d.setWaiting(userID, true)
	d.logger.Debug("awaiting order number", "user_id", userID)
	return i18n.Render(i18n.TemplateOrderNumberRequest, lang), "", true
}

// CleanOrderNumber strips the ORD- or # prefix from a matched token.
func CleanOrderNumber(number string) string {
	number = strings.TrimPrefix(number, "ORD-")
	return strings.TrimPrefix(number, "#")
}

// IsWaiting reports whether the user is in the awaiting-order-number state.
func (d *Detector) IsWaiting(userID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[userID]
	return ok && p.waiting
}

// ClearWaitingState forces the user back to idle.
func (d *Detector) ClearWaitingState(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[userID]; ok {
		p.waiting = false
		p.lastActive = time.Now()
	}
}

func (d *Detector) setWaiting(userID string, waiting bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[userID]
	if !ok {
		p = &pendingOrder{}
		d.pending[userID] = p
	}
	p.waiting = waiting
	p.lastActive = time.Now()
}

// CleanupInactive removes entries idle for longer than retention and
// returns how many were evicted.
func (d *Detector) CleanupInactive(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)

	d.mu.Lock()
	defer d.mu.Unlock()

	evicted := 0
	for userID, p := range d.pending {
		if p.lastActive.Before(cutoff) {
			delete(d.pending, userID)
			evicted++
		}
	}
	return evicted
}

func containsOrderNumber(query string) bool {
	for _, pattern := range orderPatterns {
		if pattern.MatchString(query) {
			return true
		}
	}
	return false
}
