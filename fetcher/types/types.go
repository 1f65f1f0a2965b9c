package types

import (
	"context"
)

// ArticleRef is a single entry extracted from a site's index page
type ArticleRef struct {
	Title       string
	URL         string // Always absolute
	PublishTime string // Verbatim from the page, may be empty
}

// ArticleContent holds the extracted main-content markup of a detail page
type ArticleContent struct {
	Markup string
}

// EnrichedArticle pairs a reference with its optional full content.
// Content is nil unless full-content mode was requested and extraction succeeded.
type EnrichedArticle struct {
	Ref     ArticleRef
	Content *ArticleContent
}

// FeedChannel is the assembled feed ready for serialization
type FeedChannel struct {
	Title       string
	Link        string
	Description string
	Items       []EnrichedArticle
}

// Fetcher retrieves the decoded body of a page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
