package extract

import (
	"testing"
	"time"

	"github.com/takumif/regtrawl/internal/fetch"
)

func testPolicy() Policy {
	return Policy{
		MaxAttempts:    5,
		BaseDelay:      time.Second,
		MaxDelay:       16 * time.Second,
		RateLimitFloor: 4 * time.Second,
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	p := testPolicy()
	want := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		16 * time.Second, // capped
	}
	for attempt, w := range want {
		if got := p.Backoff(fetch.KindTransient, attempt); got != w {
			t.Errorf("Backoff(transient, %d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestBackoffRateLimitFloor(t *testing.T) {
	p := testPolicy()
	if got := p.Backoff(fetch.KindRateLimited, 0); got != 4*time.Second {
		t.Errorf("Backoff(rate_limited, 0) = %v, want 4s floor", got)
	}
	// Once the schedule exceeds the floor, the schedule wins.
	if got := p.Backoff(fetch.KindRateLimited, 3); got != 8*time.Second {
		t.Errorf("Backoff(rate_limited, 3) = %v, want 8s", got)
	}
}

func TestTerminal(t *testing.T) {
	p := testPolicy()
	tests := []struct {
		name    string
		kind    fetch.Kind
		attempt int
		want    bool
	}{
		{"transient mid-budget", fetch.KindTransient, 0, false},
		{"transient last attempt", fetch.KindTransient, 4, true},
		{"server mid-budget", fetch.KindServer, 2, false},
		{"not found is immediate", fetch.KindNotFound, 0, true},
		{"client error is immediate", fetch.KindClient, 0, true},
		{"parse error is immediate", fetch.KindParse, 0, true},
	}
	for _, tt := range tests {
		if got := p.Terminal(tt.kind, tt.attempt); got != tt.want {
			t.Errorf("%s: Terminal(%s, %d) = %v, want %v", tt.name, tt.kind, tt.attempt, got, tt.want)
		}
	}
}

func TestItemStateString(t *testing.T) {
	states := map[itemState]string{
		statePending:         "pending",
		stateInProgress:      "in_progress",
		stateRetrying:        "retrying",
		stateSuccess:         "success",
		stateFailedPermanent: "failed_permanent",
	}
	for s, want := range states {
		if s.String() != want {
			t.Errorf("%d.String() = %s, want %s", s, s.String(), want)
		}
	}
}
