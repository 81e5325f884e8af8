package voteapi

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// ipLimiter is a sliding-window limiter keyed by client IP.
type ipLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	events map[string][]time.Time
	lastGC time.Time
}

func newIPLimiter(limit int, window time.Duration) *ipLimiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &ipLimiter{limit: limit, window: window, events: make(map[string][]time.Time)}
}

// Allow reports whether ip may act at now, and if not, how long to wait.
// A nil ip is never limited.
func (l *ipLimiter) Allow(ip net.IP, now time.Time) (bool, time.Duration) {
	if l == nil || ip == nil {
		return true, 0
	}
	key := ip.String()
	cut := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastGC) > l.window {
		for k, evs := range l.events {
			if len(evs) == 0 || !evs[len(evs)-1].After(cut) {
				delete(l.events, k)
			}
		}
		l.lastGC = now
	}

	evs := l.events[key]
	dst := evs[:0]
	for _, t := range evs {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}
	if len(dst) >= l.limit {
		l.events[key] = dst
		return false, dst[0].Add(l.window).Sub(now)
	}
	l.events[key] = append(dst, now)
	return true, 0
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		secs := int64(retryAfter / time.Second)
		if retryAfter%time.Second != 0 {
			secs++
		}
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
}
