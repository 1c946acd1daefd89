package httpapi

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/focusnest/study-tracker/internal/platform/auth"
	sharederrors "github.com/focusnest/study-tracker/internal/platform/errors"
)

const visitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// writeLimiter throttles writes per authenticated user.
type writeLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newWriteLimiter(perSecond float64, burst int) *writeLimiter {
	return &writeLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

func (l *writeLimiter) allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > time.Minute {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *writeLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(userKey(r)) {
			writeError(w, r, sharederrors.CodeTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userKey(r *http.Request) string {
	if user, ok := auth.UserFromContext(r.Context()); ok && user.UserID != "" {
		return user.UserID
	}
	return "anonymous:" + r.RemoteAddr
}
