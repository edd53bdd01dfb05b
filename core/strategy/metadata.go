// ABOUTME: Page metadata extraction from Open Graph, JSON-LD and plain meta tags
// ABOUTME: Also finds a cover image when the page declares none

package strategy

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"

	"linkparse-api/core/domain"
)

// PageMetadata is what a page says about itself
type PageMetadata struct {
	Title       string
	DocTitle    string
	Description string
	SiteName    string
	Image       string
	OGType      string
	LDType      string

	HasOpenGraph bool
	HasJSONLD    bool

	// NotFree is set when JSON-LD declares isAccessibleForFree=false
	NotFree bool
}

// ldTypes maps schema.org types to content types, in preference order
var ldTypes = map[string]domain.ContentType{
	"Article":             domain.TypeArticle,
	"NewsArticle":         domain.TypeArticle,
	"BlogPosting":         domain.TypeArticle,
	"Report":              domain.TypeArticle,
	"ScholarlyArticle":    domain.TypeArticle,
	"TechArticle":         domain.TypeArticle,
	"Recipe":              domain.TypeArticle,
	"VideoObject":         domain.TypeVideo,
	"Movie":               domain.TypeVideo,
	"TVEpisode":           domain.TypeVideo,
	"AudioObject":         domain.TypeAudio,
	"PodcastEpisode":      domain.TypeAudio,
	"PodcastSeries":       domain.TypeAudio,
	"MusicRecording":      domain.TypeAudio,
	"MusicAlbum":          domain.TypeAudio,
	"ImageObject":         domain.TypeImage,
	"Photograph":          domain.TypeImage,
	"Product":             domain.TypeProduct,
	"SoftwareSourceCode":  domain.TypeCode,
	"SoftwareApplication": domain.TypeProduct,
	"CreativeWork":        domain.TypeArticle,
	"VisualArtwork":       domain.TypeDesign,
}

// ExtractMetadata reads Open Graph, JSON-LD and meta tags from doc.
// Relative image URLs are resolved against base.
func ExtractMetadata(doc *goquery.Document, rawHTML string, base *url.URL) PageMetadata {
	var meta PageMetadata

	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(strings.NewReader(rawHTML)); err == nil {
		meta.Title = strings.TrimSpace(og.Title)
		meta.Description = strings.TrimSpace(og.Description)
		meta.SiteName = strings.TrimSpace(og.SiteName)
		meta.OGType = strings.ToLower(strings.TrimSpace(og.Type))
		for _, img := range og.Images {
			if img == nil {
				continue
			}
			if src := firstNonEmpty(img.SecureURL, img.URL); src != "" {
				meta.Image = src
				break
			}
		}
		meta.HasOpenGraph = meta.Title != "" || meta.Image != ""
	}

	meta.DocTitle = strings.TrimSpace(doc.Find("head title").First().Text())

	if meta.Description == "" {
		meta.Description = strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	}
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find(`meta[name="twitter:title"]`).AttrOr("content", ""))
	}
	if meta.Image == "" {
		meta.Image = strings.TrimSpace(doc.Find(`meta[name="twitter:image"]`).AttrOr("content", ""))
	}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		node := findLDNode(data)
		if node == nil {
			return true
		}
		meta.HasJSONLD = true
		meta.LDType = ldTypeOf(node)
		if meta.Title == "" {
			meta.Title = firstNonEmpty(ldString(node["headline"]), ldString(node["name"]))
		}
		if meta.Image == "" {
			meta.Image = ldImage(node["image"])
		}
		if meta.Image == "" {
			meta.Image = ldImage(node["thumbnailUrl"])
		}
		if free, ok := node["isAccessibleForFree"]; ok && isFalse(free) {
			meta.NotFree = true
		}
		return false
	})

	if meta.Image == "" {
		meta.Image = firstSignificantImage(doc)
	}
	meta.Image = resolve(base, meta.Image)

	return meta
}

// ContentType maps the declared Open Graph or JSON-LD type to a content type.
// It returns ok=false when the page declares nothing useful.
func (m PageMetadata) ContentType() (domain.ContentType, bool) {
	switch {
	case strings.HasPrefix(m.OGType, "video"):
		return domain.TypeVideo, true
	case strings.HasPrefix(m.OGType, "music"):
		return domain.TypeAudio, true
	case m.OGType == "product" || m.OGType == "og:product" || m.OGType == "product.item":
		return domain.TypeProduct, true
	}
	if t, ok := ldTypes[m.LDType]; ok {
		return t, true
	}
	if m.OGType == "article" {
		return domain.TypeArticle, true
	}
	return "", false
}

// findLDNode returns the first object whose @type is known, searching @graph and arrays
func findLDNode(data interface{}) map[string]interface{} {
	switch v := data.(type) {
	case []interface{}:
		for _, item := range v {
			if node := findLDNode(item); node != nil {
				return node
			}
		}
	case map[string]interface{}:
		if _, ok := ldTypes[ldTypeOf(v)]; ok {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			return findLDNode(graph)
		}
		if main, ok := v["mainEntity"]; ok {
			return findLDNode(main)
		}
	}
	return nil
}

func ldTypeOf(node map[string]interface{}) string {
	switch t := node["@type"].(type) {
	case string:
		return t
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok {
				if _, known := ldTypes[s]; known {
					return s
				}
			}
		}
	}
	return ""
}

func ldString(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func ldImage(v interface{}) string {
	switch img := v.(type) {
	case string:
		return img
	case map[string]interface{}:
		return firstNonEmpty(ldString(img["url"]), ldString(img["contentUrl"]))
	case []interface{}:
		for _, item := range img {
			if s := ldImage(item); s != "" {
				return s
			}
		}
	}
	return ""
}

func isFalse(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return !b
	case string:
		return strings.EqualFold(b, "false")
	}
	return false
}

// firstSignificantImage picks the first <img> likely to be content rather than chrome
func firstSignificantImage(doc *goquery.Document) string {
	var found string
	doc.Find("article img, main img, body img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := firstNonEmpty(s.AttrOr("src", ""), s.AttrOr("data-src", ""))
		if src == "" || strings.HasPrefix(src, "data:") {
			return true
		}
		if isSignificantImage(s) {
			found = src
			return false
		}
		return true
	})
	return found
}

// isSignificantImage checks if an image is likely to be content (not logo/icon)
func isSignificantImage(s *goquery.Selection) bool {
	width := s.AttrOr("width", "")
	height := s.AttrOr("height", "")

	if width != "" && height != "" {
		w, _ := strconv.Atoi(width)
		h, _ := strconv.Atoi(height)
		if w < 200 || h < 200 {
			return false
		}
	}

	class := strings.ToLower(s.AttrOr("class", ""))
	id := strings.ToLower(s.AttrOr("id", ""))
	alt := strings.ToLower(s.AttrOr("alt", ""))

	for _, pattern := range []string{"logo", "icon", "avatar", "profile", "sprite", "emoji", "badge"} {
		if strings.Contains(class, pattern) || strings.Contains(id, pattern) || strings.Contains(alt, pattern) {
			return false
		}
	}
	return true
}

// resolve makes ref absolute against base. Unusable refs resolve to "".
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
