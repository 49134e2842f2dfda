package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/channelauth/internal/common"
	"github.com/dmitrijs2005/channelauth/internal/logging"
	"github.com/dmitrijs2005/channelauth/internal/server/auth"
	"github.com/go-chi/chi/v5/middleware"
)

// AccessVerifier checks access tokens.
type AccessVerifier interface {
	VerifyAccessToken(token string) (auth.Identity, error)
}

// accessToken reads the token from the access cookie or, failing that, an
// "Authorization: Bearer" header.
func accessToken(r *http.Request) string {
	if v := cookieValue(r, common.AccessTokenCookieName); v != "" {
		return v
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate puts the caller's auth.Identity into the request context.
// With required set, requests without a valid token are rejected with 401;
// otherwise they continue anonymously.
func Authenticate(tokens AccessVerifier, log logging.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessToken(r)
			if token == "" {
				if required {
					writeError(r.Context(), log, w, common.NewError(common.KindUnauthorized, "unauthorized request"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			id, err := tokens.VerifyAccessToken(token)
			if err != nil {
				log.Debug(r.Context(), "access token rejected", "error", err)
				if required {
					writeError(r.Context(), log, w, common.NewError(common.KindUnauthorized, "invalid access token"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// requestLogger logs one line per request through logging.Logger.
func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
