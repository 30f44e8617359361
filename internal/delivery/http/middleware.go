package http

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/response"
)

const (
	RoleParticipant = "participant"
	RoleOrganizer   = "organizer"
	RoleAdmin       = "admin"

	headerRequestID = "X-Request-ID"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type claimsKey struct{}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// RequestID tags each request with a uuid, reusing an incoming X-Request-ID.
func RequestID(l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerRequestID)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(headerRequestID, id)

			ctx := l.With(r.Context(), "request_id", id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLog writes one line per request once the handler returns.
func AccessLog(l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				l.Warnf(r.Context(), "%s %s %d %dB %s", r.Method, r.URL.Path, status, ww.BytesWritten(), time.Since(start))
				return
			}
			l.Infof(r.Context(), "%s %s %d %dB %s", r.Method, r.URL.Path, status, ww.BytesWritten(), time.Since(start))
		})
	}
}

// Authenticate accepts an HS256 bearer token, or an access_token query
// parameter for EventSource clients that cannot set headers.
func Authenticate(secret, issuer string, l logger.Logger) func(http.Handler) http.Handler {
	key := []byte(secret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				response.Error(w, errUnauthenticated)
				return
			}

			claims := &Claims{}
			tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
				return key, nil
			}, opts...)
			if err != nil || !tok.Valid {
				l.Debugf(r.Context(), "delivery.http.Authenticate: %v", err)
				response.Error(w, errUnauthenticated)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			ctx = l.With(ctx, "user_id", claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := ClaimsFromContext(r.Context())
			if !ok {
				response.Error(w, errUnauthenticated)
				return
			}
			if !slices.Contains(roles, c.Role) {
				response.Error(w, errForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit limits per authenticated user, or per client IP before auth.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(keyByUser),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.Error(w, errRateLimited)
		}),
	)
}

func keyByUser(r *http.Request) (string, error) {
	if c, ok := ClaimsFromContext(r.Context()); ok && c.Subject != "" {
		return "user:" + c.Subject, nil
	}
	return httprate.KeyByIP(r)
}
