package middleware

import (
	"net"
	"strconv"
	"time"
)

// splitHostPort wraps net.SplitHostPort, tolerating a bare host with no
// port (common for forwarded addresses and in tests).
func splitHostPort(hostport string) (string, string, error) {
	host, port, err := net.SplitHostPort(hostport)
	if err == nil {
		return host, port, nil
	}
	return hostport, "", nil
}

// formatRetryAfter renders resetAt as a Retry-After header value in whole
// seconds from now, never negative.
func formatRetryAfter(resetAt time.Time) string {
	secs := int(time.Until(resetAt).Seconds())
	if secs < 0 {
		secs = 0
	}
	return strconv.Itoa(secs)
}
