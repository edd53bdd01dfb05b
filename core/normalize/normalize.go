// ABOUTME: URL normalizer producing the canonical identity of a link
// ABOUTME: Lowercases, strips default ports, tracking params and fragments

package normalize

import (
	stderrors "errors"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"linkparse-api/core/domain"
	"linkparse-api/core/errors"
)

const maxURLLength = 8192

// trackingParams are query keys removed during normalization. Keys starting
// with one of trackingPrefixes are removed as well.
var trackingParams = newSet(
	"fbclid", "gclid", "gclsrc", "dclid", "msclkid", "yclid", "twclid", "ttclid",
	"igshid", "igsh", "mc_cid", "mc_eid", "_ga", "_gl", "_hsenc", "_hsmi",
	"mkt_tok", "oly_anon_id", "oly_enc_id", "vero_id", "ref_src", "ref_url",
	"s_cid", "spm", "si", "wickedid",
)

var trackingPrefixes = []string{"utm_", "pk_", "hsa_"}

var lookup = idna.Lookup

// Normalize canonicalizes raw into a NormalizedURL.
// Normalize is deterministic and idempotent:
// Normalize(Normalize(u).String()) == Normalize(u).
func Normalize(raw string) (domain.NormalizedURL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.NormalizedURL{}, &errors.InvalidURLError{URL: raw, Reason: "url is empty"}
	}
	if len(trimmed) > maxURLLength {
		return domain.NormalizedURL{}, &errors.InvalidURLError{URL: trimmed[:64] + "...", Reason: "url is too long"}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return domain.NormalizedURL{}, &errors.InvalidURLError{URL: raw, Reason: "url does not parse"}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return domain.NormalizedURL{}, &errors.InvalidURLError{URL: raw, Reason: "scheme must be http or https"}
	}
	if u.Opaque != "" || u.Host == "" {
		return domain.NormalizedURL{}, &errors.InvalidURLError{URL: raw, Reason: "url must be absolute with a host"}
	}

	host, err := canonicalHost(u.Hostname())
	if err != nil {
		return domain.NormalizedURL{}, &errors.InvalidURLError{URL: raw, Reason: err.Error()}
	}

	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}

	switch {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}

	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}

	u.RawQuery = cleanQuery(u.RawQuery)
	u.ForceQuery = false

	return domain.NewNormalizedURL(u), nil
}

// canonicalHost lowercases the host, drops a trailing dot and converts IDNs to punycode
func canonicalHost(host string) (string, error) {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return "", stderrors.New("host is empty")
	}
	if net.ParseIP(host) != nil || isASCII(host) {
		return host, nil
	}
	ascii, err := lookup.ToASCII(host)
	if err != nil {
		return "", stderrors.New("host is not a valid domain name")
	}
	return ascii, nil
}

// cleanQuery drops tracking parameters and sorts what remains
func cleanQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil && len(values) == 0 {
		return ""
	}
	for key := range values {
		if isTrackingParam(key) {
			delete(values, key)
		}
	}
	return values.Encode()
}

func isTrackingParam(key string) bool {
	lower := strings.ToLower(key)
	if _, ok := trackingParams[lower]; ok {
		return true
	}
	for _, prefix := range trackingPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func newSet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
