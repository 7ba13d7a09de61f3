package security

import (
	"net/http"
	"strings"
)

// DefaultClientID is used when no forwarding headers are present
const DefaultClientID = "127.0.0.1"

// ClientIdentifier derives a best-effort client key from forwarding headers:
// the first X-Forwarded-For hop, else X-Real-IP, else DefaultClientID.
// The value is spoofable and only suitable for anti-abuse bucketing.
func ClientIdentifier(h http.Header) string {
	if forwarded := h.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(h.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return DefaultClientID
}
