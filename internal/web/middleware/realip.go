package middleware

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedRealIP rewrites RemoteAddr from X-Real-IP or the first
// X-Forwarded-For entry, only for connections from a trusted proxy.
// Entries may be CIDRs or single addresses. Rate limiting keys on the result.
func TrustedRealIP(trusted []string) func(http.Handler) http.Handler {
	prefixes := parsePrefixes(trusted)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if remote, ok := parseAddr(r.RemoteAddr); ok && trustedAddr(remote, prefixes) {
				if ip, ok := forwardedFor(r); ok {
					r.RemoteAddr = ip.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parsePrefixes(entries []string) []netip.Prefix {
	var out []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		slog.Warn("realip: invalid trusted proxy, skipping", "entry", e)
	}
	return out
}

// forwardedFor returns the client address a proxy reported.
func forwardedFor(r *http.Request) (netip.Addr, bool) {
	if v := r.Header.Get("X-Real-IP"); v != "" {
		a, err := netip.ParseAddr(strings.TrimSpace(v))
		return a, err == nil
	}
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		first, _, _ := strings.Cut(v, ",")
		a, err := netip.ParseAddr(strings.TrimSpace(first))
		return a, err == nil
	}
	return netip.Addr{}, false
}

// parseAddr accepts "host:port" or a bare address.
func parseAddr(s string) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap(), true
	}
	a, err := netip.ParseAddr(s)
	return a.Unmap(), err == nil
}

func trustedAddr(a netip.Addr, prefixes []netip.Prefix) bool {
	for _, p := range prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
