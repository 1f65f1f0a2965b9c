package content

import (
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/scipunch/sitefeed/fetcher/types"
)

// ErrNotFound is returned when the page has no article body element
var ErrNotFound = errors.New("article body not found")

// Extractor pulls the main article markup out of a detail page
type Extractor struct {
	Body goquery.Matcher
}

// Extract returns the outer HTML of the first element matching the body
// selector, tags included
func (e *Extractor) Extract(doc *goquery.Document) (types.ArticleContent, error) {
	body := doc.FindMatcher(e.Body).First()
	if body.Length() == 0 {
		return types.ArticleContent{}, ErrNotFound
	}

	markup, err := goquery.OuterHtml(body)
	if err != nil {
		return types.ArticleContent{}, fmt.Errorf("failed to render article body with %w", err)
	}
	return types.ArticleContent{Markup: markup}, nil
}
