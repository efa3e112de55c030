package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/isbjornDAO/tundra-sub002/internal/httputil"
)

type ContextKey string

const PrincipalKey ContextKey = "principalID"

// PrincipalHeader carries the opaque id of the acting principal, set by the gateway in front
// of the service.
const PrincipalHeader = "X-Principal-ID"

// LoadPrincipal stores the caller principal, if any, in the request context.
func LoadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := strings.TrimSpace(r.Header.Get(PrincipalHeader))
		if principal == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), PrincipalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePrincipal rejects requests that do not identify a principal.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetPrincipalFromContext(r.Context()); !ok {
			httputil.Unauthenticated(w, "missing "+PrincipalHeader+" header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetPrincipalFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(PrincipalKey)
	if val == nil {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}
