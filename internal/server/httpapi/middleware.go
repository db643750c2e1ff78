package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"

	"github.com/yapplr/yapplr/internal/common"
	"github.com/yapplr/yapplr/internal/logging"
	"github.com/yapplr/yapplr/internal/server/auth"
)

// TokenParser verifies session tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return c
}

// requireBearer rejects requests without a valid "Bearer" session token and
// stores the verified claims in the request context.
func requireBearer(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(common.AuthorizationHeaderName)
			raw, ok := strings.CutPrefix(header, common.BearerPrefix)
			if !ok || raw == "" {
				writeError(w, r, common.ErrInvalidToken)
				return
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// requestLogger logs one line per request once the response is written.
func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			}
			if status >= http.StatusInternalServerError {
				log.Error(r.Context(), "http request", args...)
				return
			}
			log.Info(r.Context(), "http request", args...)
		})
	}
}

func secureHeaders(log logging.Logger, production bool) func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		STSSeconds:            31536000,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !production,
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sm.Process(w, r); err != nil {
				log.Warn(r.Context(), "secure headers blocked request", "error", err)
				writeProblem(w, r, Problem{Status: http.StatusBadRequest})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
