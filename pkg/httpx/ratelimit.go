package httpx

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/tokengate/pkg/slogx"
	"github.com/elnormous/contenttype"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	RequestsPerWindow int           // requests allowed per Window
	Window            time.Duration // refill window
	Burst             int           // bucket size
}

// Rate limit profiles. Each can be overridden from the environment with
// RATELIMIT_<NAME>_REQUESTS, RATELIMIT_<NAME>_WINDOW_SEC and
// RATELIMIT_<NAME>_BURST, see init.
var (
	// StrictLimit guards credential checks (token issuance).
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit guards token refresh.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit guards authenticated reads.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}
)

func init() {
	StrictLimit = ParseRateLimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = ParseRateLimitFromEnv("LENIENT", LenientLimit)
}

// ParseRateLimitFromEnv overlays RATELIMIT_{prefix}_{REQUESTS,WINDOW_SEC,BURST}
// on def. Unset, unparsable or non-positive values keep the default.
func ParseRateLimitFromEnv(prefix string, def RateLimitConfig) RateLimitConfig {
	cfg := def

	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_BURST"); ok {
		cfg.Burst = n
	}

	return cfg
}

func positiveEnvInt(key string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// KeyExtractor picks the bucket a request is counted against. An empty key
// means the request is not limited.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor extracts the client IP address from the request.
// It handles X-Forwarded-For and X-Real-IP headers for proxied requests.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// CompositeKeyExtractor joins the non-empty keys of several extractors, e.g.
// "192.168.1.1:alice" for IP plus username.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		var parts []string
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// formPeekLimit bounds how much of a body FormFieldKeyExtractor reads. Larger
// bodies are keyed by the query string only.
const formPeekLimit = 64 << 10

var formMediaType = contenttype.NewMediaType("application/x-www-form-urlencoded")

// FormFieldKeyExtractor reads a urlencoded form field, falling back to the
// query string. The body is read into memory and put back untouched, so the
// handler still parses it with its own limits. JSON bodies are left alone.
func FormFieldKeyExtractor(fieldName string) KeyExtractor {
	return func(r *http.Request) string {
		if v := peekFormValue(r, fieldName); v != "" {
			return v
		}
		return r.URL.Query().Get(fieldName)
	}
}

func peekFormValue(r *http.Request, fieldName string) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(formMediaType) {
		return ""
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, formPeekLimit+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}
	if err != nil || len(buf) > formPeekLimit {
		return ""
	}

	vals, err := url.ParseQuery(string(buf))
	if err != nil {
		return ""
	}
	return vals.Get(fieldName)
}

// limiterSet hands out one token bucket per key.
type limiterSet struct {
	rate  rate.Limit
	burst int

	limiters sync.Map // map[string]*rate.Limiter

	mu          sync.Mutex
	lastCleanup time.Time
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	return &limiterSet{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	if l, ok := s.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}

	actual, _ := s.limiters.LoadOrStore(key, rate.NewLimiter(s.rate, s.burst))
	s.sweep()
	return actual.(*rate.Limiter)
}

// sweep drops idle buckets at most every five minutes. A bucket that has
// refilled completely has not been used for a while.
func (s *limiterSet) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.lastCleanup) < 5*time.Minute {
		return
	}
	s.lastCleanup = time.Now()

	s.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(s.burst) {
			s.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitMiddleware limits requests per key with a token bucket and answers
// 429 with Retry-After once a bucket is empty.
func RateLimitMiddleware(cfg RateLimitConfig, keyFn KeyExtractor) Middleware {
	set := newLimiterSet(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyFn(r)
			if key == "" {
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			limiter := set.get(key)
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			// Peek at when the next token arrives without spending it.
			res := limiter.Reserve()
			retryAfter := max(int(res.Delay().Seconds()), 1)
			res.Cancel()

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", cfg.Window.String())

			log.Warn("rate limit exceeded", "key", key, "endpoint", r.URL.Path, "retry_after", retryAfter)
			WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
		})
	}
}

// RateLimitByIP limits by client IP only.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, IPKeyExtractor)
}

// RateLimitByIPAndFormField limits by IP plus a form field, typically the
// username on a login endpoint.
func RateLimitByIPAndFormField(cfg RateLimitConfig, fieldName string) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":",
		IPKeyExtractor,
		FormFieldKeyExtractor(fieldName),
	))
}

// RateLimitByKey limits by a caller supplied key, falling back to the client
// IP when it is empty. Use it after authentication with a key such as the
// token subject.
func RateLimitByKey(cfg RateLimitConfig, key KeyExtractor) Middleware {
	return RateLimitMiddleware(cfg, func(r *http.Request) string {
		if k := key(r); k != "" {
			return k
		}
		return IPKeyExtractor(r)
	})
}
