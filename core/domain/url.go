// ABOUTME: Canonical URL value used as the identity of a parse
// ABOUTME: Exposes the canonical string form, the cache key and the display domain

package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"
)

// NormalizedURL is a canonical absolute http(s) URL.
// Construct it with normalize.Normalize; the zero value is not usable.
type NormalizedURL struct {
	u *url.URL
}

// NewNormalizedURL wraps an already canonicalized URL
func NewNormalizedURL(u *url.URL) NormalizedURL {
	clone := *u
	return NormalizedURL{u: &clone}
}

// String returns the canonical form
func (n NormalizedURL) String() string {
	if n.u == nil {
		return ""
	}
	return n.u.String()
}

// URL returns a copy of the underlying URL
func (n NormalizedURL) URL() *url.URL {
	if n.u == nil {
		return &url.URL{}
	}
	clone := *n.u
	return &clone
}

// Host returns the hostname without port
func (n NormalizedURL) Host() string {
	if n.u == nil {
		return ""
	}
	return n.u.Hostname()
}

// Domain returns the host without a leading "www."
func (n NormalizedURL) Domain() string {
	return strings.TrimPrefix(n.Host(), "www.")
}

// Key returns the hex sha1 of the canonical form
func (n NormalizedURL) Key() string {
	sum := sha1.Sum([]byte(n.String()))
	return hex.EncodeToString(sum[:])
}

// IsZero reports whether n was never initialised
func (n NormalizedURL) IsZero() bool {
	return n.u == nil
}
