// ABOUTME: Strategy registry and selector
// ABOUTME: Picks exactly one strategy per URL by priority, then registration order

package strategy

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"

	"linkparse-api/core/domain"
)

// Matcher reports whether a strategy applies to a URL
type Matcher func(u domain.NormalizedURL) bool

// Descriptor declares when a strategy applies and how it ranks.
// Lower Priority wins. Ties go to the earlier registration.
type Descriptor struct {
	Name     string
	Match    Matcher
	Kind     domain.StrategyKind
	Priority int
}

type entry struct {
	desc  Descriptor
	impl  Strategy
	order int
}

// Registry holds the registered strategies and a fallback
type Registry struct {
	mu       sync.RWMutex
	entries  []entry
	next     int
	fallback Strategy
}

// NewRegistry creates a registry that returns fallback when nothing matches
func NewRegistry(fallback Strategy) *Registry {
	return &Registry{fallback: fallback}
}

// Register adds a strategy. A nil matcher never matches.
func (r *Registry) Register(desc Descriptor, impl Strategy) {
	if desc.Name == "" {
		desc.Name = impl.Name()
	}
	if desc.Kind == "" {
		desc.Kind = impl.Kind()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry{desc: desc, impl: impl, order: r.next})
	r.next++
	sort.SliceStable(r.entries, func(i, j int) bool {
		if r.entries[i].desc.Priority != r.entries[j].desc.Priority {
			return r.entries[i].desc.Priority < r.entries[j].desc.Priority
		}
		return r.entries[i].order < r.entries[j].order
	})
}

// Select returns the single strategy for u
func (r *Registry) Select(u domain.NormalizedURL) (Descriptor, Strategy) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.desc.Match != nil && e.desc.Match(u) {
			return e.desc, e.impl
		}
	}
	return Descriptor{
		Name:     r.fallback.Name(),
		Kind:     r.fallback.Kind(),
		Priority: int(^uint(0) >> 1),
	}, r.fallback
}

// Lookup returns the registration named name, including the fallback
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.desc.Name == name {
			return e.desc, true
		}
	}
	if r.fallback != nil && r.fallback.Name() == name {
		return Descriptor{Name: name, Kind: r.fallback.Kind()}, true
	}
	return Descriptor{}, false
}

// Descriptors lists registrations in selection order
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.desc
	}
	return out
}

// Len returns the number of registrations, excluding the fallback
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Hosts matches a host equal to, or a subdomain of, any of domains
func Hosts(domains ...string) Matcher {
	set := make([]string, len(domains))
	for i, d := range domains {
		set[i] = strings.ToLower(d)
	}
	return func(u domain.NormalizedURL) bool {
		return hostMatches(u.Host(), set)
	}
}

// HostsAndPath matches Hosts and a path regular expression
func HostsAndPath(pattern string, domains ...string) Matcher {
	re := regexp.MustCompile(pattern)
	hosts := Hosts(domains...)
	return func(u domain.NormalizedURL) bool {
		return hosts(u) && re.MatchString(u.URL().Path)
	}
}

// BrandHosts matches any host whose registrable label is brand, for example
// "amazon" matches amazon.com, www.amazon.co.uk and smile.amazon.de.
func BrandHosts(brands ...string) Matcher {
	return func(u domain.NormalizedURL) bool {
		registrable, err := publicsuffix.EffectiveTLDPlusOne(u.Host())
		if err != nil {
			return false
		}
		label, _, _ := strings.Cut(registrable, ".")
		for _, b := range brands {
			if label == b {
				return true
			}
		}
		return false
	}
}

func hostMatches(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s(%s, priority %d)", d.Name, d.Kind, d.Priority)
}
