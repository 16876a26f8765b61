package middleware

import (
	"net"
	"net/http"
	"strings"
)

// HSTS tells browsers to reach the API over HTTPS only, for one year.
func HSTS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// SecureCookies marks every cookie the handler sets, the access_token session
// cookie included, as Secure and HttpOnly. Behind TLS termination the login
// handler sees plain HTTP and would otherwise leave Secure off.
func SecureCookies(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&secureCookieWriter{ResponseWriter: w}, r)
	})
}

type secureCookieWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *secureCookieWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// WriteHeader rewrites the Set-Cookie lines once, just before they are sent.
func (w *secureCookieWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	h := w.ResponseWriter.Header()
	for i, cookie := range h["Set-Cookie"] {
		h["Set-Cookie"][i] = ensureSecureCookie(cookie)
	}

	w.ResponseWriter.WriteHeader(statusCode)
}

// ensureSecureCookie appends the flags a cookie lacks. An existing SameSite
// setting is kept; a cookie without one becomes SameSite=Strict.
func ensureSecureCookie(cookie string) string {
	parts := strings.Split(cookie, ";")
	present := make(map[string]bool, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		parts[i] = p
		if i == 0 {
			continue
		}
		name, _, _ := strings.Cut(p, "=")
		present[strings.ToLower(name)] = true
	}

	if !present["secure"] {
		parts = append(parts, "Secure")
	}
	if !present["httponly"] {
		parts = append(parts, "HttpOnly")
	}
	if !present["samesite"] {
		parts = append(parts, "SameSite=Strict")
	}
	return strings.Join(parts, "; ")
}

// IsHostAllowed reports whether host, with or without a port, is one of
// allowedHosts. An empty list allows every host. The HTTPS redirect and the
// CORS origin check both use it.
func IsHostAllowed(host string, allowedHosts []string) bool {
	if len(allowedHosts) == 0 {
		return true
	}

	host = strings.ToLower(strings.TrimSpace(host))
	hostname := stripPort(host)

	for _, allowedHost := range allowedHosts {
		allowedHost = strings.ToLower(strings.TrimSpace(allowedHost))
		if host == allowedHost || hostname == stripPort(allowedHost) {
			return true
		}
	}

	return false
}

// stripPort removes an optional port and IPv6 brackets from host.
func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
}
