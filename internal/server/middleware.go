package server

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/txn2/mcp-bookstore/pkg/platform"
)

const (
	corsAllowMethods  = "GET, POST, DELETE, OPTIONS"
	corsAllowHeaders  = "Content-Type, Authorization, X-API-Key, Mcp-Session-Id, Mcp-Protocol-Version, Last-Event-ID"
	corsExposeHeaders = "Mcp-Session-Id"
	anyOrigin         = "*"
)

// corsMiddleware answers browsers from the allowed origins only. Requests
// without an Origin header are not from a browser and pass through
// untouched. A wildcard entry allows every origin but never with
// credentials.
func corsMiddleware(allowed []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(allowed, anyOrigin)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			switch {
			case slices.Contains(allowed, origin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			case wildcard:
				h.Set("Access-Control-Allow-Origin", anyOrigin)
			default:
				if r.Method == http.MethodOptions {
					http.Error(w, "origin not allowed", http.StatusForbidden)
					return
				}
				// Without CORS headers the browser withholds the response.
				next.ServeHTTP(w, r)
				return
			}
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// apiKeyMiddleware requires one of keys as a Bearer token or in the
// X-API-Key header. With no keys configured every request passes.
func apiKeyMiddleware(keys []platform.APIKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := requestToken(r)
			if token == "" {
				unauthorized(w, "Unauthorized: missing API key")
				return
			}
			name, ok := matchKey(keys, token)
			if !ok {
				slog.Warn("rejected request with unknown API key", "remote_addr", r.RemoteAddr)
				unauthorized(w, "Unauthorized: invalid API key")
				return
			}
			slog.Debug("api key accepted", "key", name)
			next.ServeHTTP(w, r)
		})
	}
}

// requestToken reads a Bearer token, falling back to X-API-Key.
func requestToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		return token
	}
	return r.Header.Get("X-API-Key")
}

// matchKey returns the name of the key matching token.
func matchKey(keys []platform.APIKey, token string) (string, bool) {
	for _, k := range keys {
		if k.Matches(token) {
			return k.Name, true
		}
	}
	return "", false
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, msg, http.StatusUnauthorized)
}
