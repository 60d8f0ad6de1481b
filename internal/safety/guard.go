// internal/safety/guard.go
package safety

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/leadpilot/leadpilot-backend/internal/model"
)

// trackerRetentionDays is how long finished per-day trackers are kept
// before opportunistic purging reclaims them.
const trackerRetentionDays = 3

// Limits holds the per-deployment quotas and spacing rules.
type Limits struct {
	DailyConnectionRequests int
	DailyDirectMessages     int
	DailyEmails             int

	ConnectionSpacing time.Duration
	MessageSpacing    time.Duration
	EmailSpacing      time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		DailyConnectionRequests: 25,
		DailyDirectMessages:     50,
		DailyEmails:             100,
		ConnectionSpacing:       90 * time.Second,
		MessageSpacing:          120 * time.Second,
		EmailSpacing:            60 * time.Second,
	}
}

func (l Limits) dailyFor(action model.ActionType) int {
	switch action {
	case model.ActionConnectionRequest:
		return l.DailyConnectionRequests
	case model.ActionDirectMessage:
		return l.DailyDirectMessages
	default:
		return l.DailyEmails
	}
}

func (l Limits) spacingFor(action model.ActionType) time.Duration {
	switch action {
	case model.ActionConnectionRequest:
		return l.ConnectionSpacing
	case model.ActionDirectMessage:
		return l.MessageSpacing
	default:
		return l.EmailSpacing
	}
}

// CheckResult is an advisory admission decision. It is never an error:
// denials carry a reason and a suggested wait so the caller can reschedule
// instead of polling.
type CheckResult struct {
	Allowed               bool   `json:"allowed"`
	Reason                string `json:"reason,omitempty"`
	SuggestedDelaySeconds int    `json:"suggested_delay_seconds,omitempty"`
}

// Warning is one timestamped safety note against an account.
type Warning struct {
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthWarning  HealthStatus = "warning"
	HealthCritical HealthStatus = "critical"
)

// UsageSnapshot is a point-in-time copy of today's counters for an account.
type UsageSnapshot struct {
	Day                string `json:"day"`
	ConnectionRequests int    `json:"connection_requests"`
	DirectMessages     int    `json:"direct_messages"`
	Emails             int    `json:"emails"`
}

// AccountHealth is derived on read, never stored.
type AccountHealth struct {
	Status     HealthStatus  `json:"status"`
	Warnings   []Warning     `json:"warnings"`
	UsageToday UsageSnapshot `json:"usage_today"`
}

// usageTracker holds one account's counters for one calendar day.
// check-then-increment happens under its own lock so unrelated accounts
// never serialize on each other.
type usageTracker struct {
	mu         sync.Mutex
	day        string
	counts     map[model.ActionType]int
	lastAction map[model.ActionType]time.Time
}

// Guard is the per-account rate limiter and safety bookkeeper. All methods
// are safe for concurrent use.
type Guard struct {
	mu       sync.Mutex
	limits   Limits
	trackers map[string]*usageTracker
	warnings map[string][]Warning

	// Now is swappable for tests.
	Now func() time.Time
}

func NewGuard(limits Limits) *Guard {
	return &Guard{
		limits:   limits,
		trackers: make(map[string]*usageTracker),
		warnings: make(map[string][]Warning),
		Now:      time.Now,
	}
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// tracker returns the (account, day) tracker, creating it lazily. Stale
// trackers are purged here rather than on a timer, so memory stays bounded
// without a background goroutine.
func (g *Guard) tracker(accountID string, now time.Time) *usageTracker {
	day := dayKey(now)
	key := accountID + "|" + day

	g.mu.Lock()
	defer g.mu.Unlock()

	if t, ok := g.trackers[key]; ok {
		return t
	}

	cutoff := dayKey(now.AddDate(0, 0, -trackerRetentionDays))
	for k, t := range g.trackers {
		if t.day < cutoff {
			delete(g.trackers, k)
		}
	}

	t := &usageTracker{
		day:        day,
		counts:     make(map[model.ActionType]int),
		lastAction: make(map[model.ActionType]time.Time),
	}
	g.trackers[key] = t
	return t
}

// CheckAction admits or denies count actions of the given type right now.
// On admission the counters are bumped in the same critical section as the
// check, so two concurrent callers can never both squeeze past the limit.
func (g *Guard) CheckAction(accountID string, action model.ActionType, count int) CheckResult {
	if count <= 0 {
		count = 1
	}
	if !action.Valid() {
		return CheckResult{Allowed: false, Reason: fmt.Sprintf("unknown action type %q", action)}
	}

	now := g.Now()
	t := g.tracker(accountID, now)

	t.mu.Lock()
	defer t.mu.Unlock()

	limit := g.limits.dailyFor(action)
	if t.counts[action]+count > limit {
		return CheckResult{
			Allowed:               false,
			Reason:                fmt.Sprintf("daily %s limit reached (%d/%d)", action, t.counts[action], limit),
			SuggestedDelaySeconds: secondsUntilTomorrow(now),
		}
	}

	spacing := g.limits.spacingFor(action)
	if last, ok := t.lastAction[action]; ok && spacing > 0 {
		elapsed := now.Sub(last)
		if elapsed < spacing {
			remaining := int(math.Ceil((spacing - elapsed).Seconds()))
			return CheckResult{
				Allowed:               false,
				Reason:                fmt.Sprintf("minimum spacing for %s not met, wait %ds", action, remaining),
				SuggestedDelaySeconds: remaining,
			}
		}
	}

	t.counts[action] += count
	t.lastAction[action] = now
	return CheckResult{Allowed: true}
}

func secondsUntilTomorrow(now time.Time) int {
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return int(math.Ceil(tomorrow.Sub(now).Seconds()))
}

// AddWarning records a safety warning against an account. Health status is
// derived from the log on read, never stored.
func (g *Guard) AddWarning(accountID, text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.warnings[accountID] = append(g.warnings[accountID], Warning{At: g.Now(), Text: text})
}

// GetAccountHealth reports derived status, the warning log and today's
// usage. It never creates a tracker as a side effect.
func (g *Guard) GetAccountHealth(accountID string) AccountHealth {
	now := g.Now()
	day := dayKey(now)

	g.mu.Lock()
	warnings := make([]Warning, len(g.warnings[accountID]))
	copy(warnings, g.warnings[accountID])
	t := g.trackers[accountID+"|"+day]
	g.mu.Unlock()

	usage := UsageSnapshot{Day: day}
	if t != nil {
		t.mu.Lock()
		usage.ConnectionRequests = t.counts[model.ActionConnectionRequest]
		usage.DirectMessages = t.counts[model.ActionDirectMessage]
		usage.Emails = t.counts[model.ActionEmail]
		t.mu.Unlock()
	}

	status := HealthHealthy
	switch {
	case len(warnings) >= 5:
		status = HealthCritical
	case len(warnings) >= 2:
		status = HealthWarning
	}

	return AccountHealth{Status: status, Warnings: warnings, UsageToday: usage}
}
