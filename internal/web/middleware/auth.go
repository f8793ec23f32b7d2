package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/coverage/internal/config"
	"github.com/JonMunkholm/coverage/internal/logging"
)

// HeaderAPIKey carries the caller's key on /api requests.
const HeaderAPIKey = "X-API-Key"

// APIKeyAuth rejects requests without a configured X-API-Key when
// RequireAPIKey is set. A missing key is 401 (AUTH001), an unknown one 403
// (AUTH002). With RequireAPIKey set and no keys configured nothing passes.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(HeaderAPIKey)
			switch {
			case key == "":
				denied(w, r, http.StatusUnauthorized, "AUTH001", "missing API key")
			case !validKey(key, cfg.APIKeys):
				denied(w, r, http.StatusForbidden, "AUTH002", "invalid API key")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func denied(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	logging.FromContext(r.Context()).Warn("auth: request denied",
		"reason", msg,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}

// validKey compares against every configured key in constant time.
func validKey(key string, keys []string) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return match == 1
}
