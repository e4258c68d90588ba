package registry

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateSnapshot is the most constraining rate limit state seen during a run.
type RateSnapshot struct {
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	Reset      time.Time `json:"reset"`
	RetryAfter time.Time `json:"retry_after,omitempty"`
	Observed   bool      `json:"-"`
}

// RateObserver records the rate limit headers of registry responses. It only
// observes; requests are never delayed on its account.
type RateObserver struct {
	mu   sync.Mutex
	snap RateSnapshot
	now  func() time.Time
}

func NewRateObserver() *RateObserver {
	return &RateObserver{now: time.Now}
}

func (o *RateObserver) Snapshot() RateSnapshot {
	if o == nil {
		return RateSnapshot{}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snap
}

// Observe updates the snapshot from resp. Responses complete out of order
// across workers, so within one reset window the lowest remaining wins and a
// later reset window replaces an earlier one.
func (o *RateObserver) Observe(resp *http.Response) {
	if o == nil || resp == nil {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			until := o.now().Add(time.Duration(seconds) * time.Second)
			if until.After(o.snap.RetryAfter) {
				o.snap.RetryAfter = until
			}
		}
	}

	remaining, okRemaining := headerInt(resp, "X-RateLimit-Remaining")
	if !okRemaining || remaining < 0 {
		return
	}
	limit, _ := headerInt(resp, "X-RateLimit-Limit")
	var reset time.Time
	if v, ok := headerInt(resp, "X-RateLimit-Reset"); ok && v > 0 {
		reset = time.Unix(int64(v), 0)
	}

	switch {
	case !o.snap.Observed, reset.After(o.snap.Reset):
		o.snap.Remaining = remaining
		o.snap.Reset = reset
		o.snap.Limit = limit
	case reset.Equal(o.snap.Reset) && remaining < o.snap.Remaining:
		o.snap.Remaining = remaining
		if limit > 0 {
			o.snap.Limit = limit
		}
	}
	o.snap.Observed = true
}

func headerInt(resp *http.Response, name string) (int, bool) {
	raw := resp.Header.Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
