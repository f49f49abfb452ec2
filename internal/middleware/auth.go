package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/config"
)

type CtxKey int

const (
	CtxSessionClaims CtxKey = iota
)

// bearerToken reads the token from the Authorization header, falling back to
// the token query parameter (browsers cannot set headers on websockets).
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// SessionToken puts valid session claims into the request context. Requests
// without a valid token pass through unauthenticated.
func SessionToken(log logrus.FieldLogger, j *config.JWT) Middleware {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				h.ServeHTTP(w, r)
				return
			}
			claims, err := j.ParseSession(token)
			if err != nil {
				log.WithError(err).Debug("rejected session token")
				h.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), CtxSessionClaims, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func SessionClaims(ctx context.Context) (*config.SessionClaims, bool) {
	claims, ok := ctx.Value(CtxSessionClaims).(*config.SessionClaims)
	return claims, ok
}
