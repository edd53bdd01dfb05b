// ABOUTME: Reddit strategy using the public JSON representation of a post
// ABOUTME: Maps post hints to image, video or article results

package strategy

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"html"
	"strings"
	"unicode/utf8"

	"linkparse-api/core/domain"
	"linkparse-api/core/errors"
	"linkparse-api/core/interfaces"
)

var errMissingTitle = stderrors.New("response has no title")

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title        string `json:"title"`
	Selftext     string `json:"selftext"`
	SelftextHTML string `json:"selftext_html"`
	URL          string `json:"url"`
	PostHint     string `json:"post_hint"`
	IsVideo      bool   `json:"is_video"`
	Thumbnail    string `json:"thumbnail"`
	Subreddit    string `json:"subreddit_name_prefixed"`
	Author       string `json:"author"`
	Preview      struct {
		Images []struct {
			Source struct {
				URL string `json:"url"`
			} `json:"source"`
		} `json:"images"`
	} `json:"preview"`
}

// Reddit reads a post through reddit's JSON API
type Reddit struct {
	fetcher interfaces.Fetcher
}

// NewReddit creates the reddit strategy
func NewReddit(fetcher interfaces.Fetcher) *Reddit {
	return &Reddit{fetcher: fetcher}
}

func (r *Reddit) Name() string { return "reddit" }

func (r *Reddit) Kind() domain.StrategyKind { return domain.KindPlatformAPI }

// Extract fetches <post>.json and normalizes the first listing entry
func (r *Reddit) Extract(ctx context.Context, u domain.NormalizedURL) (*Draft, error) {
	apiURL := "https://www.reddit.com" + strings.TrimSuffix(u.URL().EscapedPath(), "/") + ".json?raw_json=1"

	res, err := r.fetcher.Fetch(ctx, interfaces.FetchRequest{URL: apiURL, Accept: "application/json"})
	if err != nil {
		return nil, err
	}

	var listings []redditListing
	if err := json.Unmarshal(res.Body, &listings); err != nil {
		return nil, &errors.FetchError{URL: apiURL, Cause: errors.WrapError(err, "decode reddit listing")}
	}
	if len(listings) == 0 || len(listings[0].Data.Children) == 0 {
		return nil, &errors.FetchError{URL: apiURL, Cause: errors.WrapError(errMissingTitle, "reddit")}
	}
	post := listings[0].Data.Children[0].Data
	if strings.TrimSpace(post.Title) == "" {
		return nil, &errors.FetchError{URL: apiURL, Cause: errors.WrapError(errMissingTitle, "reddit")}
	}

	contentType := domain.TypeArticle
	switch {
	case post.IsVideo || post.PostHint == "hosted:video" || post.PostHint == "rich:video":
		contentType = domain.TypeVideo
	case post.PostHint == "image":
		contentType = domain.TypeImage
	}

	cover := ""
	if len(post.Preview.Images) > 0 {
		cover = html.UnescapeString(post.Preview.Images[0].Source.URL)
	}
	if cover == "" && strings.HasPrefix(post.Thumbnail, "http") {
		cover = post.Thumbnail
	}

	var body strings.Builder
	body.WriteString(post.SelftextHTML)
	if contentType == domain.TypeImage && post.URL != "" {
		body.WriteString(`<img src="` + html.EscapeString(post.URL) + `" alt="` + html.EscapeString(post.Title) + `">`)
	}
	if post.Subreddit != "" {
		body.WriteString("<p>" + html.EscapeString(post.Subreddit) + "</p>")
	}

	return &Draft{
		Result: domain.ParseResult{
			Title:         strings.TrimSpace(post.Title),
			Type:          contentType,
			ContentHTML:   domain.StringPtr(body.String()),
			CoverImageURL: domain.StringPtr(cover),
			Domain:        u.Domain(),
			URL:           u.String(),
		},
		TextLength: utf8.RuneCountInString(post.Selftext),
		Signals: Signals{
			HasTitle:          true,
			HasStructuredData: true,
			Platform:          true,
		},
	}, nil
}
