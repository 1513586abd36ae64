package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// forwardingHeaders are checked in order when the server sits behind a proxy.
var forwardingHeaders = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// ClientIP returns the caller's address, or "" if it cannot be parsed.
// Forwarding headers are only honoured when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		return getProxyClientIP(r)
	}
	return getDirectClientIPValidated(r)
}

func getProxyClientIP(r *http.Request) string {
	for _, header := range forwardingHeaders {
		value := strings.TrimSpace(r.Header.Get(header))
		if value == "" {
			continue
		}

		// X-Forwarded-For lists the origin first
		first, _, _ := strings.Cut(value, ",")

		addr, err := netip.ParseAddr(strings.TrimSpace(first))
		// a private address in a forwarding header is a spoofing attempt
		if err != nil || isPrivateIP(addr) {
			continue
		}

		return addr.String()
	}

	return getDirectClientIPValidated(r)
}

func getDirectClientIPValidated(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// r.RemoteAddr does not have a port, use it as is
		host = r.RemoteAddr
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(host))
	if err != nil {
		return "" // Invalid IP - let middleware handle this
	}
	return addr.String()
}

func isPrivateIP(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}
