// ABOUTME: SSRF guard rejecting URLs that resolve to internal address space
// ABOUTME: Validates literal IPs, resolved IPs and every dial so DNS rebinding cannot slip through

package ssrf

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"linkparse-api/core/errors"
)

// blockedNets are reserved ranges not covered by the net.IP helpers
var blockedNets = mustParseCIDRs(
	"0.0.0.0/8",       // "this" network
	"100.64.0.0/10",   // carrier-grade NAT
	"192.0.0.0/24",    // IETF protocol assignments
	"192.0.2.0/24",    // TEST-NET-1
	"198.18.0.0/15",   // benchmarking
	"198.51.100.0/24", // TEST-NET-2
	"203.0.113.0/24",  // TEST-NET-3
	"240.0.0.0/4",     // reserved, includes broadcast
	"fc00::/7",        // unique local
	"fe80::/10",       // link-local
	"2001:db8::/32",   // documentation
	"64:ff9b:1::/48",  // local-use NAT64
)

var nat64 = mustParseCIDRs("64:ff9b::/96")[0]

var blockedSuffixes = []string{".localhost", ".local", ".internal", ".home.arpa", ".lan"}

// Resolver looks up the addresses of a host
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Guard decides whether a URL may be fetched
type Guard struct {
	resolver Resolver
	allowed  []*net.IPNet
	dialer   *net.Dialer
}

// Option configures a Guard
type Option func(*Guard)

// WithResolver replaces the DNS resolver
func WithResolver(r Resolver) Option {
	return func(g *Guard) {
		g.resolver = r
	}
}

// WithAllowedNets exempts the given ranges from blocking.
// Intended for tests and private deployments that fetch from an internal mirror.
func WithAllowedNets(nets ...*net.IPNet) Option {
	return func(g *Guard) {
		for _, n := range nets {
			if n != nil {
				g.allowed = append(g.allowed, n)
			}
		}
	}
}

// New creates a Guard using the system resolver
func New(opts ...Option) *Guard {
	g := &Guard{
		resolver: net.DefaultResolver,
		dialer: &net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckURL validates scheme and host, then resolves the host and validates every address.
// It never opens a connection to the target.
func (g *Guard) CheckURL(ctx context.Context, u *url.URL) error {
	if u == nil {
		return &errors.SecurityRejectedError{Detail: "missing url"}
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return &errors.SecurityRejectedError{Host: u.Hostname(), Detail: "scheme " + scheme + " is not allowed"}
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return &errors.SecurityRejectedError{Detail: "missing host"}
	}

	if ip := net.ParseIP(host); ip != nil {
		return g.CheckIP(host, ip)
	}

	if err := checkHostname(host); err != nil {
		return err
	}

	_, err := g.resolve(ctx, host)
	return err
}

// CheckIP rejects ip unless it is publicly routable or explicitly allowed
func (g *Guard) CheckIP(host string, ip net.IP) error {
	if g.isAllowed(ip) {
		return nil
	}
	if IsBlockedIP(ip) {
		return &errors.SecurityRejectedError{Host: host, Detail: fmt.Sprintf("address %s is not publicly routable", ip)}
	}
	return nil
}

// DialContext resolves addr, validates every resolved address and dials a validated one.
// Plug it into http.Transport so that each connection, including redirects and
// keep-alive reconnects, is checked at connect time.
func (g *Guard) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil {
		if err := g.CheckIP(host, ip); err != nil {
			return nil, err
		}
		ips = []net.IP{ip}
	} else {
		if err := checkHostname(strings.ToLower(host)); err != nil {
			return nil, err
		}
		ips, err = g.resolve(ctx, host)
		if err != nil {
			return nil, err
		}
	}

	var lastErr error
	for _, ip := range ips {
		conn, err := g.dialer.DialContext(ctx, network, net.JoinHostPort(ip.String(), port))
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed to connect to any resolved address of %s: %w", host, lastErr)
}

// resolve looks up host and rejects it if any address is blocked
func (g *Guard) resolve(ctx context.Context, host string) ([]net.IP, error) {
	addrs, err := g.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, &errors.FetchError{URL: host, Cause: fmt.Errorf("dns lookup failed: %w", err)}
	}
	if len(addrs) == 0 {
		return nil, &errors.FetchError{URL: host, Cause: fmt.Errorf("dns lookup returned no addresses")}
	}

	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		if err := g.CheckIP(host, a.IP); err != nil {
			return nil, err
		}
		ips = append(ips, a.IP)
	}
	return ips, nil
}

func (g *Guard) isAllowed(ip net.IP) bool {
	for _, n := range g.allowed {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func checkHostname(host string) error {
	if host == "localhost" {
		return &errors.SecurityRejectedError{Host: host, Detail: "localhost is not allowed"}
	}
	for _, suffix := range blockedSuffixes {
		if strings.HasSuffix(host, suffix) {
			return &errors.SecurityRejectedError{Host: host, Detail: "local domain " + suffix + " is not allowed"}
		}
	}
	return nil
}

// IsBlockedIP reports whether ip is loopback, private, link-local, multicast,
// unspecified or in another reserved range. IPv4-mapped and NAT64 addresses are
// checked against their embedded IPv4 address.
func IsBlockedIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	} else if nat64.Contains(ip) {
		return IsBlockedIP(net.IP(ip[12:16]))
	}

	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast() {
		return true
	}

	for _, n := range blockedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ParseCIDRs parses ranges for WithAllowedNets. A bare address is taken as a
// single-host range.
func ParseCIDRs(cidrs ...string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if !strings.Contains(c, "/") {
			ip := net.ParseIP(c)
			if ip == nil {
				return nil, fmt.Errorf("invalid CIDR %q", c)
			}
			bits := 128
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", c, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets, err := ParseCIDRs(cidrs...)
	if err != nil {
		panic(err)
	}
	return nets
}
