package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"net/netip"
	"slices"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
)

// RegisterPprof exposes the runtime profiler under /debug/pprof, reachable
// only from the allowed networks.
func RegisterPprof(r chi.Router, allowedCIDRs []string, logger *slog.Logger) {
	r.Route("/debug/pprof", func(r chi.Router) {
		r.Use(IPAllowlist(allowedCIDRs, logger))
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.Get("/symbol", pprof.Symbol)
		r.Post("/symbol", pprof.Symbol)
		r.Get("/trace", pprof.Trace)
		r.Get("/*", pprof.Index)
	})
}

// IPAllowlist admits only clients whose address falls in one of cidrs.
// Entries that do not parse are logged and ignored, so a list with no valid
// entry denies every request.
func IPAllowlist(cidrs []string, logger *slog.Logger) func(http.Handler) http.Handler {
	allowed := parsePrefixes(cidrs, logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr, ok := remoteAddr(r)
			if ok && slices.ContainsFunc(allowed, func(p netip.Prefix) bool { return p.Contains(addr) }) {
				next.ServeHTTP(w, r)
				return
			}

			logger.WarnContext(r.Context(), "request outside debug allowlist",
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("path", r.URL.Path),
			)
			writeDenied(w, http.StatusForbidden, apperrors.CodeForbidden, "access restricted by IP allowlist")
		})
	}
}

func parsePrefixes(cidrs []string, logger *slog.Logger) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			logger.Warn("ignoring malformed allowlist entry",
				slog.String("cidr", cidr),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, p.Masked())
	}
	return out
}

// remoteAddr parses the peer address, folding IPv4-mapped IPv6 to IPv4.
func remoteAddr(r *http.Request) (netip.Addr, bool) {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
