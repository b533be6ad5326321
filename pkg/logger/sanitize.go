package logger

import (
	"net"
	"strings"
)

// SanitizedIdentity masks a client identity for logging. IPv4 addresses
// keep the first two octets (e.g. "203.0.*.*"), IPv6 keeps the first two
// groups; anything non-address is masked past the first two characters.
func SanitizedIdentity(identity string) string {
	ip := net.ParseIP(identity)
	if ip == nil {
		if len(identity) <= 2 {
			return "**"
		}
		return identity[:2] + strings.Repeat("*", len(identity)-2)
	}

	if v4 := ip.To4(); v4 != nil {
		parts := strings.Split(v4.String(), ".")
		return parts[0] + "." + parts[1] + ".*.*"
	}

	groups := strings.Split(ip.String(), ":")
	if len(groups) < 2 {
		return "masked-ipv6"
	}
	return groups[0] + ":" + groups[1] + ":****"
}

// SanitizeQueryString checks if query string contains sensitive parameters
// and returns true if the entire query string should be redacted
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := map[string]bool{
		"pin":       true,
		"password":  true,
		"token":     true,
		"secret":    true,
		"api_key":   true,
		"apikey":    true,
		"auth":      true,
		"challenge": true,
	}

	query := strings.ToLower(rawQuery)
	for param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
