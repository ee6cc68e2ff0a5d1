package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	pterrors "github.com/papertrail-app/papertrail/internal/errors"
	"github.com/papertrail-app/papertrail/internal/store"
)

// ctxUserID is the gin context key for the authenticated user id.
const ctxUserID = "userID"

// requestIDMiddleware tags each request with an id, honoring one the
// client already sent.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("requestID", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// loggingMiddleware logs one structured line per request.
func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("request",
			"request_id", c.GetString("requestID"),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds())
	}
}

// ipLimiter hands out one token-bucket limiter per client IP. Entries
// idle past the expiry are dropped by a background sweep.
type ipLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rate    rate.Limit
	burst   int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(perMinute int) *ipLimiter {
	l := &ipLimiter{
		clients: make(map[string]*clientLimiter),
		rate:    rate.Limit(float64(perMinute) / 60.0),
		burst:   perMinute,
	}
	go l.sweep()
	return l
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[ip] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter.Allow()
}

func (l *ipLimiter) sweep() {
	for range time.Tick(time.Minute) {
		l.mu.Lock()
		for ip, cl := range l.clients {
			if time.Since(cl.lastSeen) > 3*time.Minute {
				delete(l.clients, ip)
			}
		}
		l.mu.Unlock()
	}
}

// rateLimitMiddleware enforces a per-IP request budget.
func rateLimitMiddleware(perMinute int) gin.HandlerFunc {
	limiter := newIPLimiter(perMinute)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limit_exceeded",
					"message": "too many requests",
				},
			})
			return
		}
		c.Next()
	}
}

// sessionMiddleware resolves the session token into a user id when one
// is present. It never rejects: anonymous requests proceed with no user.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if cookie, err := c.Cookie(sessionCookie); err == nil {
			token = cookie
		} else if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}

		if token != "" {
			if claims, err := s.tokens.Verify(token); err == nil {
				c.Set(ctxUserID, claims.UserID)
			}
		}
		c.Next()
	}
}

// requireAuth rejects requests without a valid session.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ctxUserID); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    pterrors.ErrCodeNotAuthorized,
					"message": "authentication required",
				},
			})
			return
		}
		c.Next()
	}
}

// currentUserID returns the authenticated user id, if any.
func currentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// visibility derives the retrieval visibility from the session.
func visibility(c *gin.Context) store.Visibility {
	if id, ok := currentUserID(c); ok {
		return store.ForUser(id)
	}
	return store.Anonymous()
}

// respondError maps structured errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := pterrors.GetCode(err)

	switch code {
	case pterrors.ErrCodePaperNotFound, pterrors.ErrCodeUserNotFound:
		status = http.StatusNotFound
	case pterrors.ErrCodeNotAuthorized:
		status = http.StatusForbidden
	case pterrors.ErrCodeInvalidInput, pterrors.ErrCodeQueryEmpty:
		status = http.StatusBadRequest
	case pterrors.ErrCodeDuplicateUser:
		status = http.StatusConflict
	case pterrors.ErrCodeEmbedderUnavailable, pterrors.ErrCodeEmbedderTimeout:
		status = http.StatusServiceUnavailable
	}

	message := "internal error"
	var pe *pterrors.Error
	if errors.As(err, &pe) {
		message = pe.Message
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
