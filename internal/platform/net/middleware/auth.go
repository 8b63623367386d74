package middleware

import (
	stdjson "encoding/json"
	stdhttp "net/http"
	"strings"

	perr "udfhost/internal/platform/errors"
	pnet "udfhost/internal/platform/net"
)

// TokenFunc validates a presented bearer token
type TokenFunc func(token string) error

// ParseBearer extracts the bearer token from an Authorization header.
// Returns unauthorized when the header is missing or malformed.
func ParseBearer(r *stdhttp.Request) (string, error) {
	s := strings.TrimSpace(r.Header.Get("Authorization"))
	if s == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	const prefix = "bearer"
	if !strings.HasPrefix(strings.ToLower(s), prefix) {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(s[len(prefix):])
	if raw == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	return raw, nil
}

// Bearer guards routes with a bearer token check. A nil check disables the guard
func Bearer(check TokenFunc) func(stdhttp.Handler) stdhttp.Handler {
	return func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			if check == nil {
				next.ServeHTTP(w, r)
				return
			}
			tok, err := ParseBearer(r)
			if err == nil {
				err = check(tok)
			}
			if err != nil {
				status, body := pnet.Error(perr.Unauthorizedf("invalid bearer token"), pnet.RequestID(r.Context()))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(status)
				_ = stdjson.NewEncoder(w).Encode(body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
