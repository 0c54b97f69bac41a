package ratelimit

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	submissionsAllowed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "comment_rate_limiter_allowed_total",
		Help: "Total comment submissions admitted by the per-IP rate limiter",
	})

	submissionsThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "comment_rate_limiter_throttled_total",
		Help: "Total comment submissions rejected by the per-IP rate limiter",
	})

	trackedBuckets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "comment_rate_limiter_buckets",
		Help: "Number of per-IP token buckets currently tracked",
	})
)

// bucket tracks a token bucket per client IP.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter enforces a per-IP token bucket on comment submissions. Each IP gets
// a bucket of `capacity` tokens refilled continuously over the refill period.
// Idle buckets are evicted by a background sweep so the map does not grow
// with every IP ever seen.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int
	refill   time.Duration
	ttl      time.Duration
	nowFunc  func() time.Time // injectable clock for testing
	logger   *slog.Logger
	done     chan struct{}
}

// New creates a limiter allowing capacity submissions per IP over the given
// refill period, and starts the idle-bucket sweep.
func New(capacity int, refill time.Duration, logger *slog.Logger) *Limiter {
	l := &Limiter{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		refill:   refill,
		ttl:      2 * refill,
		nowFunc:  time.Now,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Capacity returns the configured bucket capacity.
func (l *Limiter) Capacity() int {
	return l.capacity
}

// RefillPeriod returns the configured refill period.
func (l *Limiter) RefillPeriod() time.Duration {
	return l.refill
}

// resolve returns (or creates) the bucket for the given IP and updates
// lastSeen. Caller must hold the mutex.
func (l *Limiter) resolve(ip string) *bucket {
	b, exists := l.buckets[ip]
	if !exists {
		perSecond := rate.Limit(float64(l.capacity) / l.refill.Seconds())
		b = &bucket{limiter: rate.NewLimiter(perSecond, l.capacity)}
		l.buckets[ip] = b
		trackedBuckets.Set(float64(len(l.buckets)))
		l.logger.Info("new comment rate limit bucket", slog.String("ip", MaskIP(ip)))
	}
	b.lastSeen = l.nowFunc()
	return b
}

// TryConsume takes one token from the IP's bucket. It returns false when the
// bucket is empty and the submission must be rejected.
func (l *Limiter) TryConsume(ip string) bool {
	l.mu.Lock()
	b := l.resolve(ip)
	now := l.nowFunc()
	allowed := b.limiter.AllowN(now, 1)
	remaining := int(b.limiter.TokensAt(now))
	l.mu.Unlock()

	if allowed {
		submissionsAllowed.Inc()
		l.logger.Info("comment submission admitted",
			slog.String("ip", MaskIP(ip)),
			slog.Int("remaining", remaining),
			slog.Int("capacity", l.capacity),
		)
	} else {
		submissionsThrottled.Inc()
		l.logger.Warn("comment rate limit exceeded",
			slog.String("ip", MaskIP(ip)),
			slog.Duration("refill_period", l.refill),
		)
	}

	return allowed
}

// Remaining returns the number of whole tokens currently available to the IP.
func (l *Limiter) Remaining(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.resolve(ip)
	tokens := int(b.limiter.TokensAt(l.nowFunc()))
	if tokens < 0 {
		return 0
	}
	return tokens
}

// Close stops the background sweep.
func (l *Limiter) Close() {
	close(l.done)
}

// sweepLoop periodically evicts buckets not seen within the TTL.
func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep evicts all buckets whose lastSeen is older than the TTL.
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	for ip, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.ttl {
			delete(l.buckets, ip)
		}
	}
	trackedBuckets.Set(float64(len(l.buckets)))
}

// len returns the number of tracked buckets (used in tests).
func (l *Limiter) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// MaskIP elides the last two groups of an IP address for log privacy.
// IPv4: 192.168.1.1 becomes 192.168.x.x.
// IPv6: 2001:db8::8a2e:370:7334 becomes 2001:db8::8a2e:x:x.
func MaskIP(ip string) string {
	if ip == "" {
		return "unknown"
	}

	if strings.Contains(ip, ".") {
		parts := strings.Split(ip, ".")
		if len(parts) == 4 {
			return parts[0] + "." + parts[1] + ".x.x"
		}
	}

	if strings.Contains(ip, ":") {
		parts := strings.Split(ip, ":")
		if len(parts) > 2 {
			return strings.Join(parts[:len(parts)-2], ":") + ":x:x"
		}
	}

	if len(ip) <= 3 {
		return ip + "..."
	}
	return ip[:3] + "..."
}
