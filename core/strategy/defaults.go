// ABOUTME: Built-in strategy registrations
// ABOUTME: SPA bypasses first, then platform APIs, then typed metadata, with generic readability as fallback

package strategy

import (
	"strings"

	"linkparse-api/core/domain"
	"linkparse-api/core/interfaces"
)

// Priorities of the built-in registrations. Lower runs first.
const (
	PrioritySPABypass  = 10
	PriorityPlatform   = 20
	PriorityStructured = 30
)

// Options tune the default registry
type Options struct {
	// Trafilatura enables the trafilatura fallback in page analysis
	Trafilatura bool

	// ExtraSPADomains are additional hosts to short-circuit to the webview
	ExtraSPADomains []string
}

type spaPlatform struct {
	name  string
	hosts []string
}

var defaultSPAPlatforms = []spaPlatform{
	{name: "twitter", hosts: []string{"twitter.com", "x.com"}},
	{name: "instagram", hosts: []string{"instagram.com"}},
	{name: "tiktok", hosts: []string{"tiktok.com"}},
	{name: "facebook", hosts: []string{"facebook.com", "fb.watch", "fb.com"}},
	{name: "threads", hosts: []string{"threads.net", "threads.com"}},
	{name: "linkedin", hosts: []string{"linkedin.com"}},
	{name: "snapchat", hosts: []string{"snapchat.com"}},
	{name: "discord", hosts: []string{"discord.com", "discord.gg"}},
	{name: "figma", hosts: []string{"figma.com"}},
	{name: "notion", hosts: []string{"notion.so", "notion.site"}},
	{name: "google-docs", hosts: []string{"docs.google.com"}},
}

type typedSite struct {
	name  string
	typ   domain.ContentType
	match Matcher
}

func defaultTypedSites() []typedSite {
	return []typedSite{
		{"gist", domain.TypeCode, Hosts("gist.github.com")},
		{"github", domain.TypeCode, Hosts("github.com")},
		{"gitlab", domain.TypeCode, Hosts("gitlab.com")},
		{"bitbucket", domain.TypeCode, Hosts("bitbucket.org")},
		{"stackoverflow", domain.TypeCode, Hosts("stackoverflow.com", "stackexchange.com", "serverfault.com", "superuser.com")},
		{"dribbble", domain.TypeDesign, Hosts("dribbble.com")},
		{"behance", domain.TypeDesign, Hosts("behance.net")},
		{"pinterest", domain.TypeImage, BrandHosts("pinterest")},
		{"imgur", domain.TypeImage, Hosts("imgur.com")},
		{"unsplash", domain.TypeImage, Hosts("unsplash.com")},
		{"amazon", domain.TypeProduct, BrandHosts("amazon")},
		{"etsy", domain.TypeProduct, Hosts("etsy.com")},
		{"ebay", domain.TypeProduct, BrandHosts("ebay")},
		{"producthunt", domain.TypeProduct, Hosts("producthunt.com")},
		{"apple-podcasts", domain.TypeAudio, Hosts("podcasts.apple.com")},
		{"overcast", domain.TypeAudio, Hosts("overcast.fm")},
		{"pocketcasts", domain.TypeAudio, Hosts("pca.st", "pocketcasts.com")},
		{"bandcamp", domain.TypeAudio, Hosts("bandcamp.com")},
		{"twitch", domain.TypeVideo, Hosts("twitch.tv")},
		{"medium", domain.TypeArticle, Hosts("medium.com")},
		{"substack", domain.TypeArticle, Hosts("substack.com")},
	}
}

// NewDefaultRegistry registers every built-in strategy against fetcher
func NewDefaultRegistry(fetcher interfaces.Fetcher, opts Options) *Registry {
	generic := NewGeneric(fetcher, opts.Trafilatura)
	r := NewRegistry(generic)

	for _, p := range defaultSPAPlatforms {
		r.Register(Descriptor{Name: p.name, Match: Hosts(p.hosts...), Priority: PrioritySPABypass}, NewSPABypass(p.name))
	}
	if len(opts.ExtraSPADomains) > 0 {
		hosts := make([]string, 0, len(opts.ExtraSPADomains))
		for _, h := range opts.ExtraSPADomains {
			if h = strings.TrimSpace(strings.ToLower(h)); h != "" {
				hosts = append(hosts, h)
			}
		}
		r.Register(Descriptor{Name: "spa-configured", Match: Hosts(hosts...), Priority: PrioritySPABypass}, NewSPABypass("spa-configured"))
	}

	for _, p := range DefaultOEmbedProviders {
		r.Register(Descriptor{Name: p.Name, Match: Hosts(p.Hosts...), Priority: PriorityPlatform}, NewOEmbed(p, fetcher, generic))
	}
	r.Register(Descriptor{
		Name:     "reddit",
		Match:    HostsAndPath(`^/r/[^/]+/comments/`, "reddit.com"),
		Priority: PriorityPlatform,
	}, NewReddit(fetcher))

	for _, s := range defaultTypedSites() {
		r.Register(Descriptor{Name: s.name, Match: s.match, Priority: PriorityStructured}, NewTyped(s.name, s.typ, generic))
	}

	return r
}
