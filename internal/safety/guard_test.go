package safety

import (
	"strings"
	"testing"
	"time"

	"github.com/leadpilot/leadpilot-backend/internal/model"
)

func testGuard(limits Limits) (*Guard, *time.Time) {
	g := NewGuard(limits)
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	g.Now = func() time.Time { return now }
	return g, &now
}

func TestDailyQuotaExhaustion(t *testing.T) {
	limits := DefaultLimits()
	limits.DailyConnectionRequests = 3
	limits.ConnectionSpacing = 0
	g, now := testGuard(limits)

	for i := 0; i < 3; i++ {
		res := g.CheckAction("acct-1", model.ActionConnectionRequest, 1)
		if !res.Allowed {
			t.Fatalf("action %d should be allowed, got reason %q", i+1, res.Reason)
		}
		*now = now.Add(5 * time.Minute)
	}

	res := g.CheckAction("acct-1", model.ActionConnectionRequest, 1)
	if res.Allowed {
		t.Fatal("4th action should be denied")
	}
	if !strings.Contains(res.Reason, "limit reached") {
		t.Errorf("expected limit-reached reason, got %q", res.Reason)
	}
	if res.SuggestedDelaySeconds <= 0 {
		t.Errorf("expected a suggested delay until tomorrow, got %d", res.SuggestedDelaySeconds)
	}

	// Other accounts are unaffected.
	if res := g.CheckAction("acct-2", model.ActionConnectionRequest, 1); !res.Allowed {
		t.Errorf("unrelated account should be allowed, got %q", res.Reason)
	}
}

func TestQuotaResetsNextDay(t *testing.T) {
	limits := DefaultLimits()
	limits.DailyEmails = 1
	limits.EmailSpacing = 0
	g, now := testGuard(limits)

	if res := g.CheckAction("acct-1", model.ActionEmail, 1); !res.Allowed {
		t.Fatalf("first email should be allowed: %q", res.Reason)
	}
	if res := g.CheckAction("acct-1", model.ActionEmail, 1); res.Allowed {
		t.Fatal("second email same day should be denied")
	}

	*now = now.AddDate(0, 0, 1)
	if res := g.CheckAction("acct-1", model.ActionEmail, 1); !res.Allowed {
		t.Fatalf("email should be allowed on a fresh day: %q", res.Reason)
	}
}

func TestMinimumSpacing(t *testing.T) {
	limits := DefaultLimits()
	limits.ConnectionSpacing = 90 * time.Second
	g, now := testGuard(limits)

	if res := g.CheckAction("acct-1", model.ActionConnectionRequest, 1); !res.Allowed {
		t.Fatalf("first action should be allowed: %q", res.Reason)
	}

	res := g.CheckAction("acct-1", model.ActionConnectionRequest, 1)
	if res.Allowed {
		t.Fatal("immediate second action should be denied")
	}
	if res.SuggestedDelaySeconds != 90 {
		t.Errorf("expected 90s suggested delay, got %d", res.SuggestedDelaySeconds)
	}

	*now = now.Add(30 * time.Second)
	res = g.CheckAction("acct-1", model.ActionConnectionRequest, 1)
	if res.Allowed {
		t.Fatal("action 30s later should still be denied")
	}
	if res.SuggestedDelaySeconds != 60 {
		t.Errorf("expected 60s remaining, got %d", res.SuggestedDelaySeconds)
	}

	// Waiting exactly the suggested delay is enough.
	*now = now.Add(time.Duration(res.SuggestedDelaySeconds) * time.Second)
	if res := g.CheckAction("acct-1", model.ActionConnectionRequest, 1); !res.Allowed {
		t.Errorf("action after suggested delay should be allowed, got %q", res.Reason)
	}
}

func TestSpacingIsPerActionType(t *testing.T) {
	g, _ := testGuard(DefaultLimits())

	if res := g.CheckAction("acct-1", model.ActionConnectionRequest, 1); !res.Allowed {
		t.Fatalf("connection should be allowed: %q", res.Reason)
	}
	// A different action type is not spaced against connections.
	if res := g.CheckAction("acct-1", model.ActionEmail, 1); !res.Allowed {
		t.Errorf("email right after connection should be allowed, got %q", res.Reason)
	}
}

func TestCheckActionBatchCount(t *testing.T) {
	limits := DefaultLimits()
	limits.DailyDirectMessages = 4
	limits.MessageSpacing = 0
	g, _ := testGuard(limits)

	if res := g.CheckAction("acct-1", model.ActionDirectMessage, 5); res.Allowed {
		t.Fatal("batch exceeding the daily limit should be denied")
	}
	if res := g.CheckAction("acct-1", model.ActionDirectMessage, 4); !res.Allowed {
		t.Fatalf("batch within the limit should be allowed: %q", res.Reason)
	}
}

func TestUnknownActionType(t *testing.T) {
	g, _ := testGuard(DefaultLimits())
	if res := g.CheckAction("acct-1", model.ActionType("carrier_pigeon"), 1); res.Allowed {
		t.Fatal("unknown action type should be denied")
	}
}

func TestAccountHealthDerivation(t *testing.T) {
	g, _ := testGuard(DefaultLimits())

	if h := g.GetAccountHealth("acct-1"); h.Status != HealthHealthy {
		t.Fatalf("fresh account should be healthy, got %s", h.Status)
	}

	g.AddWarning("acct-1", "slow response from platform")
	if h := g.GetAccountHealth("acct-1"); h.Status != HealthHealthy {
		t.Errorf("1 warning should still be healthy, got %s", h.Status)
	}

	g.AddWarning("acct-1", "content blocked")
	if h := g.GetAccountHealth("acct-1"); h.Status != HealthWarning {
		t.Errorf("2 warnings should be warning, got %s", h.Status)
	}

	for i := 0; i < 3; i++ {
		g.AddWarning("acct-1", "content blocked")
	}
	h := g.GetAccountHealth("acct-1")
	if h.Status != HealthCritical {
		t.Errorf("5 warnings should be critical, got %s", h.Status)
	}
	if len(h.Warnings) != 5 {
		t.Errorf("expected 5 warnings in the log, got %d", len(h.Warnings))
	}
}

func TestHealthIncludesTodayUsage(t *testing.T) {
	limits := DefaultLimits()
	limits.EmailSpacing = 0
	g, _ := testGuard(limits)

	g.CheckAction("acct-1", model.ActionEmail, 1)
	g.CheckAction("acct-1", model.ActionEmail, 1)

	h := g.GetAccountHealth("acct-1")
	if h.UsageToday.Emails != 2 {
		t.Errorf("expected 2 emails used today, got %d", h.UsageToday.Emails)
	}
	if h.UsageToday.ConnectionRequests != 0 {
		t.Errorf("expected 0 connections used, got %d", h.UsageToday.ConnectionRequests)
	}
}

func TestStaleTrackerPurge(t *testing.T) {
	g, now := testGuard(DefaultLimits())

	g.CheckAction("acct-1", model.ActionEmail, 1)
	g.CheckAction("acct-2", model.ActionEmail, 1)
	if len(g.trackers) != 2 {
		t.Fatalf("expected 2 trackers, got %d", len(g.trackers))
	}

	// 4 days later, creating a fresh tracker reclaims the stale ones.
	*now = now.AddDate(0, 0, 4)
	g.CheckAction("acct-1", model.ActionEmail, 1)
	if len(g.trackers) != 1 {
		t.Errorf("expected stale trackers purged, got %d", len(g.trackers))
	}
}
