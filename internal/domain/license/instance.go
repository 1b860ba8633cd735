package license

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// SanitizeInstance normalizes a caller-supplied instance identifier. URLs
// are reduced to their host, internationalized hostnames are converted to
// their canonical punycode form, and everything is lowercased and trimmed.
// The result is what uniqueness per key is enforced against. Sanitization
// never fails: input that cannot be normalized further is returned as-is
// after trimming and lowercasing.
func SanitizeInstance(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if host := hostOf(s); host != "" {
		s = host
	}

	s = strings.ToLower(s)

	if ascii, err := idna.Lookup.ToASCII(s); err == nil && ascii != "" {
		s = ascii
	}

	return s
}

// hostOf extracts the hostname when the input parses as a URL, dropping
// scheme, port, path and credentials. Plain identifiers (machine IDs,
// serials) come back empty and are used unchanged.
func hostOf(s string) string {
	candidate := s
	if !strings.Contains(candidate, "://") {
		// url.Parse treats a bare "example.com/path" as a relative
		// path, so give it a scheme when one is plausible.
		if strings.Contains(candidate, ".") && !strings.ContainsAny(candidate, " \t") {
			candidate = "//" + candidate
		} else {
			return ""
		}
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
