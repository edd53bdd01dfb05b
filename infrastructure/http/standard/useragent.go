// ABOUTME: User-agent reputation tiers for upstream fetches
// ABOUTME: Maps domains to a deterministic UA and header set instead of rotating randomly

package standard

import (
	"strings"
	"sync"
)

// Tier is a named User-Agent plus the extra headers sent with it
type Tier struct {
	Name      string
	UserAgent string
	Headers   map[string]string
}

var (
	// TierDefault identifies the service honestly
	TierDefault = Tier{
		Name:      "default",
		UserAgent: "Mozilla/5.0 (compatible; LinkParse/1.0; +https://linkparse.app/bot)",
	}

	// TierBrowser looks like a desktop navigation for sites that block bots outright
	TierBrowser = Tier{
		Name:      "browser",
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
		Headers: map[string]string{
			"Accept-Language":           "en-US,en;q=0.9",
			"Cache-Control":             "no-cache",
			"Pragma":                    "no-cache",
			"Sec-Ch-Ua-Mobile":          "?0",
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Sec-Fetch-User":            "?1",
			"Upgrade-Insecure-Requests": "1",
		},
	}

	// TierCrawler is for sites that only render Open Graph tags for link unfurlers
	TierCrawler = Tier{
		Name:      "crawler",
		UserAgent: "facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)",
	}
)

var defaultTierDomains = map[string]string{
	"medium.com":         "browser",
	"nytimes.com":        "browser",
	"washingtonpost.com": "browser",
	"bloomberg.com":      "browser",
	"wsj.com":            "browser",
	"economist.com":      "browser",
	"ft.com":             "browser",
	"theverge.com":       "browser",
	"substack.com":       "browser",
	"amazon.com":         "crawler",
	"etsy.com":           "crawler",
	"quora.com":          "crawler",
	"imdb.com":           "crawler",
}

// UserAgentTable resolves the tier for a host. Lookups walk up the
// domain labels so "www.nytimes.com" matches "nytimes.com".
type UserAgentTable struct {
	mu      sync.RWMutex
	tiers   map[string]Tier
	domains map[string]string
}

// NewUserAgentTable creates a table holding the built-in tiers and domain assignments
func NewUserAgentTable() *UserAgentTable {
	t := &UserAgentTable{
		tiers: map[string]Tier{
			TierDefault.Name: TierDefault,
			TierBrowser.Name: TierBrowser,
			TierCrawler.Name: TierCrawler,
		},
		domains: make(map[string]string, len(defaultTierDomains)),
	}
	for d, tier := range defaultTierDomains {
		t.domains[d] = tier
	}
	return t
}

// Assign maps domain to the named tier. Unknown tier names are ignored and reported false.
func (t *UserAgentTable) Assign(domain, tier string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.tiers[tier]; !ok {
		return false
	}
	t.domains[strings.ToLower(strings.TrimPrefix(domain, "www."))] = tier
	return true
}

// TierFor returns the tier assigned to host or TierDefault
func (t *UserAgentTable) TierFor(host string) Tier {
	t.mu.RLock()
	defer t.mu.RUnlock()

	host = strings.ToLower(host)
	for {
		if name, ok := t.domains[host]; ok {
			return t.tiers[name]
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			return TierDefault
		}
		host = host[i+1:]
	}
}
