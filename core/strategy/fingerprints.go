// ABOUTME: Page fingerprints for bot walls, paywalls and JavaScript-only shells
// ABOUTME: Plain substring checks over the raw HTML, run before extraction

package strategy

import "strings"

// challenge pages are small; a long page that mentions one of these is content about them
const maxChallengePageBytes = 64 << 10

var blockedMarkers = []string{
	"captcha-delivery.com",
	"cf-browser-verification",
	"cf-challenge",
	"challenges.cloudflare.com",
	"checking your browser",
	"just a moment...",
	"attention required! | cloudflare",
	"please enable js and disable any ad blocker",
	"px-captcha",
	"are you a robot",
	"verify you are human",
	"access denied</title>",
	"request unsuccessful. incapsula",
	"_incapsula_resource",
}

var paywallMarkers = []string{
	`"isaccessibleforfree":false`,
	`"isaccessibleforfree": false`,
	`"isaccessibleforfree":"false"`,
	"class=\"paywall",
	"id=\"paywall",
	"subscribe to continue reading",
	"subscribe to read the full",
	"this article is for subscribers",
	"already a subscriber? sign in",
	"metered-content",
	"piano-offer",
	"tp-modal",
}

var jsMarkers = []string{
	"please enable javascript",
	"javascript is required",
	"javascript is disabled",
	"enable javascript to",
	"requires javascript",
	"you need to enable javascript",
	"javascript must be enabled",
	"this site requires javascript",
	"you must have javascript enabled",
	"this page requires javascript",
}

// IsBlocked reports whether html looks like a bot challenge
func IsBlocked(html string) bool {
	if len(html) > maxChallengePageBytes {
		return false
	}
	return containsAny(strings.ToLower(html), blockedMarkers)
}

// IsPaywalled reports whether html declares or renders a paywall
func IsPaywalled(html string) bool {
	return containsAny(strings.ToLower(html), paywallMarkers)
}

// MentionsJavaScript reports whether html asks the reader to enable JavaScript
func MentionsJavaScript(html string) bool {
	return containsAny(strings.ToLower(html), jsMarkers)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
