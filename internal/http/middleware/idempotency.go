package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/certivo/chatdesk-backend/internal/domain"
)

// HeaderIdempotencyKey is the request header carrying a client-chosen retry
// key for unsafe operations. A client resending the same chat message after a
// timeout reuses the key so the answer is deduplicated instead of recomputed.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys for idempotency state, read through the accessors below.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

// GetIdempotencyKey returns the validated key stashed by IdempotencyValidator.
// Handlers read this rather than the raw header so they only ever see keys
// that passed validation.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request repeats an already-completed
// operation for the same user and key.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions bounds what a key may look like. MaxLen <= 0 means 200;
// a nil Pattern accepts token-ish characters only (letters, digits, . _ ~ - :).
// TTL is the lookup's business, not header validation's.
type IdempotencyOptions struct {
	MaxLen  int
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a completed, unexpired result exists for
// (userID, key) as of now. Lookup errors are treated as "no replay" so a
// storage hiccup degrades to recomputing, never to blocking the request.
type IdempotencyLookup func(ctx context.Context, userID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator checks the Idempotency-Key header when present,
// stashes the key in the context, and asks the lookup whether this is a
// retry of a completed request. A detected replay sets both the replay flag
// and the rate-limiter bypass flag; serving the stored answer stays with the
// handler. Requests without the header pass through untouched, and a
// malformed key is rejected with a 400 envelope.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "bad_request",
				"message":    "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			uid := userIDFromCtx(c)
			if exists, _ := lookup(c.Request.Context(), uid, key, time.Now().UTC()); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

// userIDFromCtx is the id resolved by auth, or the guest sentinel when the
// caller carries no account.
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return domain.GuestUserID
}
