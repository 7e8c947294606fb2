package folio

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// contactIdleTTL is how long an idle visitor keeps its bucket.
const contactIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ContactLimiter throttles contact form submissions per IP address.
type ContactLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

// NewContactLimiter allows perMinute submissions per IP, refilled evenly
// across the minute.
func NewContactLimiter(perMinute int) *ContactLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &ContactLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		now:      time.Now,
	}
}

// Allow reports whether ip may submit now and consumes a token if so.
func (l *ContactLimiter) Allow(ip string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// prune drops visitors idle for longer than ttl.
func (l *ContactLimiter) prune(ttl time.Duration) {
	cutoff := l.now().Add(-ttl)

	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
		}
	}
}

// StartCleanup prunes idle visitors every interval until the returned func is called.
func (l *ContactLimiter) StartCleanup(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.prune(contactIdleTTL)
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (l *ContactLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}
