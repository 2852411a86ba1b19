package tenant

import (
	"net"
	"strings"
)

// Normalize canonicalizes a subdomain for storage and lookup.
func Normalize(subdomain string) string {
	return strings.ToLower(strings.TrimSpace(subdomain))
}

// SubdomainFromHost extracts the tenant subdomain from an HTTP Host header.
// The host must be a single label directly under the configured root domain
// ("acme.support.test" with root "support.test" yields "acme"). The bare root
// domain, nested labels and unrelated hosts all report false so the request
// can be rejected before any tenant is guessed.
func SubdomainFromHost(host, rootDomain string) (string, bool) {
	if host == "" || rootDomain == "" {
		return "", false
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	host = strings.ToLower(strings.TrimSuffix(host, "."))
	rootDomain = strings.ToLower(strings.TrimSuffix(rootDomain, "."))

	if host == rootDomain {
		return "", false
	}

	label, found := strings.CutSuffix(host, "."+rootDomain)
	if !found || label == "" || strings.Contains(label, ".") {
		return "", false
	}

	return label, true
}
