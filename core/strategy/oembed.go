// ABOUTME: oEmbed platform strategy for video, audio and image hosts
// ABOUTME: Falls back to the page's static metadata when the oEmbed endpoint fails

package strategy

import (
	"context"
	"encoding/json"
	"html"
	"net/url"
	"strings"

	"linkparse-api/core/domain"
	"linkparse-api/core/errors"
	"linkparse-api/core/interfaces"
)

// OEmbedProvider describes one oEmbed endpoint
type OEmbedProvider struct {
	Name     string
	Endpoint string
	Type     domain.ContentType
	Hosts    []string
}

// DefaultOEmbedProviders are the built-in providers
var DefaultOEmbedProviders = []OEmbedProvider{
	{Name: "youtube", Endpoint: "https://www.youtube.com/oembed", Type: domain.TypeVideo, Hosts: []string{"youtube.com", "youtu.be", "youtube-nocookie.com"}},
	{Name: "vimeo", Endpoint: "https://vimeo.com/api/oembed.json", Type: domain.TypeVideo, Hosts: []string{"vimeo.com"}},
	{Name: "dailymotion", Endpoint: "https://www.dailymotion.com/services/oembed", Type: domain.TypeVideo, Hosts: []string{"dailymotion.com", "dai.ly"}},
	{Name: "ted", Endpoint: "https://www.ted.com/services/v1/oembed.json", Type: domain.TypeVideo, Hosts: []string{"ted.com"}},
	{Name: "soundcloud", Endpoint: "https://soundcloud.com/oembed", Type: domain.TypeAudio, Hosts: []string{"soundcloud.com"}},
	{Name: "spotify", Endpoint: "https://open.spotify.com/oembed", Type: domain.TypeAudio, Hosts: []string{"open.spotify.com"}},
	{Name: "mixcloud", Endpoint: "https://www.mixcloud.com/oembed/", Type: domain.TypeAudio, Hosts: []string{"mixcloud.com"}},
	{Name: "flickr", Endpoint: "https://www.flickr.com/services/oembed/", Type: domain.TypeImage, Hosts: []string{"flickr.com", "flic.kr"}},
	{Name: "giphy", Endpoint: "https://giphy.com/services/oembed", Type: domain.TypeImage, Hosts: []string{"giphy.com"}},
}

type oembedResponse struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ProviderName string `json:"provider_name"`
	ThumbnailURL string `json:"thumbnail_url"`
	HTML         string `json:"html"`
	URL          string `json:"url"`
}

// OEmbed resolves a link through its provider's oEmbed endpoint
type OEmbed struct {
	provider OEmbedProvider
	fetcher  interfaces.Fetcher
	page     *Generic
}

// NewOEmbed creates an oEmbed strategy; page handles the static fallback
func NewOEmbed(provider OEmbedProvider, fetcher interfaces.Fetcher, page *Generic) *OEmbed {
	return &OEmbed{provider: provider, fetcher: fetcher, page: page}
}

func (o *OEmbed) Name() string { return o.provider.Name }

func (o *OEmbed) Kind() domain.StrategyKind { return domain.KindPlatformAPI }

// Extract queries the oEmbed endpoint, falling back to the page itself
func (o *OEmbed) Extract(ctx context.Context, u domain.NormalizedURL) (*Draft, error) {
	draft, err := o.fromEndpoint(ctx, u)
	if err == nil {
		return draft, nil
	}
	if !canFallBack(err) {
		return nil, err
	}

	draft, pageErr := o.page.Extract(ctx, u)
	if pageErr != nil {
		return nil, pageErr
	}
	if draft.Result.Type == domain.TypeArticle {
		draft.Result.Type = o.provider.Type
	}
	return draft, nil
}

func (o *OEmbed) fromEndpoint(ctx context.Context, u domain.NormalizedURL) (*Draft, error) {
	q := url.Values{}
	q.Set("url", u.String())
	q.Set("format", "json")

	res, err := o.fetcher.Fetch(ctx, interfaces.FetchRequest{
		URL:    o.provider.Endpoint + "?" + q.Encode(),
		Accept: "application/json",
	})
	if err != nil {
		return nil, err
	}

	var payload oembedResponse
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return nil, &errors.FetchError{URL: res.FinalURL, Cause: errors.WrapError(err, "decode oembed")}
	}
	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return nil, &errors.FetchError{URL: res.FinalURL, Cause: errors.WrapError(errMissingTitle, "oembed")}
	}

	contentType := o.provider.Type
	var body strings.Builder
	switch payload.Type {
	case "photo":
		contentType = domain.TypeImage
		if payload.URL != "" {
			body.WriteString(`<img src="` + html.EscapeString(payload.URL) + `" alt="` + html.EscapeString(title) + `">`)
		}
	case "video", "rich":
		body.WriteString(payload.HTML)
	}
	if payload.AuthorName != "" {
		body.WriteString("<p>" + html.EscapeString(payload.AuthorName) + "</p>")
	}

	cover := payload.ThumbnailURL
	if cover == "" && payload.Type == "photo" {
		cover = payload.URL
	}

	return &Draft{
		Result: domain.ParseResult{
			Title:         title,
			Type:          contentType,
			ContentHTML:   domain.StringPtr(body.String()),
			CoverImageURL: domain.StringPtr(cover),
			Domain:        u.Domain(),
			URL:           u.String(),
		},
		TextLength: len(title) + len(payload.AuthorName),
		Signals: Signals{
			HasTitle:          true,
			HasStructuredData: true,
			Platform:          true,
		},
	}, nil
}

// canFallBack reports whether a platform failure should be retried via the page
func canFallBack(err error) bool {
	return !errors.IsSecurityRejected(err) && !errors.IsOverloaded(err) && !errors.IsTimeout(err)
}
