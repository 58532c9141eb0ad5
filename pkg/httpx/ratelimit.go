package httpx

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/aussiebroadwan/medoffice/pkg/slogx"
	"golang.org/x/time/rate"
)

// Limit is a token bucket: Requests per Window refill rate, Burst capacity.
type Limit struct {
	Requests int
	Window   time.Duration
	Burst    int
}

func (l Limit) every() rate.Limit {
	return rate.Limit(float64(l.Requests) / l.Window.Seconds())
}

// Profiles shared by the auth routes. Each can be overridden at start-up
// through RATELIMIT_<NAME>_REQUESTS, RATELIMIT_<NAME>_WINDOW_SEC and
// RATELIMIT_<NAME>_BURST.
var (
	// StrictLimit guards credential and second-factor checks.
	StrictLimit = Limit{Requests: 5, Window: time.Minute, Burst: 5}
	// ModerateLimit guards authenticated writes.
	ModerateLimit = Limit{Requests: 20, Window: time.Minute, Burst: 20}
	LenientLimit  = Limit{Requests: 100, Window: time.Minute, Burst: 100}
	PublicLimit   = Limit{Requests: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	StrictLimit = LimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = LimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = LimitFromEnv("LENIENT", LenientLimit)
	PublicLimit = LimitFromEnv("PUBLIC", PublicLimit)
}

// LimitFromEnv applies RATELIMIT_<name>_* overrides to def. Values that are
// missing, malformed or not positive leave the default in place.
func LimitFromEnv(name string, def Limit) Limit {
	positive := func(suffix string) (int, bool) {
		n, err := strconv.Atoi(os.Getenv("RATELIMIT_" + name + "_" + suffix))
		return n, err == nil && n > 0
	}

	l := def
	if n, ok := positive("REQUESTS"); ok {
		l.Requests = n
	}
	if n, ok := positive("WINDOW_SEC"); ok {
		l.Window = time.Duration(n) * time.Second
	}
	if n, ok := positive("BURST"); ok {
		l.Burst = n
	}
	return l
}

// sweepEvery is how often idle buckets are dropped.
const sweepEvery = 5 * time.Minute

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// buckets holds one limiter per key. A bucket idle for longer than a full
// refill is indistinguishable from a new one, so it is safe to drop.
type buckets struct {
	limit Limit
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newBuckets(l Limit) *buckets {
	return &buckets{limit: l, now: time.Now, visitors: make(map[string]*visitor), lastSweep: time.Now()}
}

// take consumes one token for key and returns the wait until the next one
// when the bucket is empty.
func (b *buckets) take(key string) (bool, time.Duration) {
	now := b.now()

	b.mu.Lock()
	if now.Sub(b.lastSweep) >= sweepEvery {
		idle := b.limit.Window * time.Duration(max(b.limit.Burst, 1))
		for k, v := range b.visitors {
			if now.Sub(v.seen) > idle {
				delete(b.visitors, k)
			}
		}
		b.lastSweep = now
	}
	v, ok := b.visitors[key]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(b.limit.every(), b.limit.Burst)}
		b.visitors[key] = v
	}
	v.seen = now
	b.mu.Unlock()

	if v.lim.AllowN(now, 1) {
		return true, 0
	}
	r := v.lim.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

func (b *buckets) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.visitors)
}

// RateLimit rejects requests with 429 once the bucket for key(r) is empty.
// Requests for which key returns "" pass through unmetered.
func RateLimit(l Limit, key KeyFunc) Middleware {
	b := newBuckets(l)
	limitHeader := strconv.Itoa(l.Requests)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: no key for request")
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := b.take(k)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retry := max(int((wait+time.Second-1)/time.Second), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			w.Header().Set("X-RateLimit-Limit", limitHeader)
			w.Header().Set("X-RateLimit-Window", l.Window.String())

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", k,
				"path", r.URL.Path,
				"retry_after", retry,
			)
			WriteJSON(w, http.StatusTooManyRequests, errorBody{
				Error:   "rate_limit_exceeded",
				Message: "Too many requests. Please try again later.",
			})
		})
	}
}

// RateLimitByIP meters per client address.
func RateLimitByIP(l Limit) Middleware {
	return RateLimit(l, KeyByIP)
}

// RateLimitByAccount meters per authenticated account, per address for
// anonymous callers.
func RateLimitByAccount(l Limit) Middleware {
	return RateLimit(l, FirstKey(KeyByAccount, KeyByIP))
}

// RateLimitByIPAndJSONField meters per address and body field together,
// e.g. login attempts per IP and email.
func RateLimitByIPAndJSONField(l Limit, field string) Middleware {
	return RateLimit(l, JoinKeys(KeyByIP, KeyByJSONField(field)))
}
