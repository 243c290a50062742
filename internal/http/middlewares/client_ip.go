package middlewares

import (
	"net"
	"net/http"
	"net/netip"
	"slices"
	"strings"
)

// WithClientIP resuelve la IP de cliente una sola vez por request y la deja
// en el contexto para logging y rate limiting.
//
// X-Forwarded-For solo se considera si RemoteAddr pertenece a trusted; en
// ese caso se recorre de derecha a izquierda y gana la primera IP que no
// sea un proxy confiable. Sin trusted, el header se ignora.
func WithClientIP(trusted []netip.Prefix) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, trusted)
			next.ServeHTTP(w, r.WithContext(withClientIP(r.Context(), ip)))
		})
	}
}

func resolveClientIP(r *http.Request, trusted []netip.Prefix) string {
	remote := remoteHost(r)
	if len(trusted) == 0 || !isTrusted(remote, trusted) {
		return remote
	}
	hops := forwardedHops(r)
	for i := len(hops) - 1; i >= 0; i-- {
		if !isTrusted(hops[i], trusted) {
			return hops[i]
		}
	}
	// toda la cadena es interna
	if len(hops) > 0 {
		return hops[0]
	}
	return remote
}

// forwardedHops junta todos los X-Forwarded-For (puede venir repetido) y
// descarta entradas que no son IPs.
func forwardedHops(r *http.Request) []string {
	var out []string
	for _, h := range r.Header.Values("X-Forwarded-For") {
		for _, p := range strings.Split(h, ",") {
			p = strings.TrimSpace(p)
			if addr, err := netip.ParseAddr(p); err == nil {
				out = append(out, addr.Unmap().String())
			}
		}
	}
	return out
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return slices.ContainsFunc(trusted, func(p netip.Prefix) bool { return p.Contains(addr) })
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// clientIP retorna la IP resuelta por WithClientIP o, sin ese middleware,
// el host de RemoteAddr.
func clientIP(r *http.Request) string {
	if ip := GetClientIP(r.Context()); ip != "" {
		return ip
	}
	return remoteHost(r)
}
