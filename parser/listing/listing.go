package listing

import (
	"iter"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/scipunch/sitefeed/fetcher/types"
)

// Extractor turns an index page into article references.
// All fields are set once at startup and never mutated afterwards.
type Extractor struct {
	Items  goquery.Matcher // list entries
	Anchor goquery.Matcher // title/link source inside an entry
	Time   goquery.Matcher // optional, nil when the site shows no dates
	Base   *url.URL        // site root, used for href resolution and as the default link
	Logger *zap.Logger
}

// Extract yields references in document order. Malformed entries are
// skipped with a warning and never stop the iteration.
func (e *Extractor) Extract(doc *goquery.Document) iter.Seq[types.ArticleRef] {
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}
	root := e.Base.String()

	return func(yield func(types.ArticleRef) bool) {
		items := doc.FindMatcher(e.Items)
		for i := range items.Nodes {
			item := items.Eq(i)

			a := item.FindMatcher(e.Anchor).First()
			if a.Length() == 0 {
				log.Warn("skipping list item without anchor", zap.String("base", root), zap.Int("position", i))
				continue
			}

			title := resolveTitle(a)
			if title == "" {
				href, _ := a.Attr("href")
				log.Warn("skipping list item without usable title",
					zap.String("base", root), zap.Int("position", i), zap.String("href", href))
				continue
			}

			ref := types.ArticleRef{
				Title:       title,
				URL:         e.resolveURL(a, log),
				PublishTime: e.resolveTime(item),
			}
			if !yield(ref) {
				return
			}
		}
	}
}

func resolveTitle(a *goquery.Selection) string {
	if t, ok := a.Attr("title"); ok {
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	return strings.TrimSpace(a.Text())
}

func (e *Extractor) resolveURL(a *goquery.Selection, log *zap.Logger) string {
	href, ok := a.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		log.Debug("list item has no href, using site root", zap.String("base", e.Base.String()))
		return e.Base.String()
	}

	u, err := url.Parse(href)
	if err != nil {
		log.Warn("list item has malformed href, using site root",
			zap.String("base", e.Base.String()), zap.String("href", href), zap.Error(err))
		return e.Base.String()
	}
	resolved := e.Base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		log.Warn("list item href is not a web link, using site root",
			zap.String("base", e.Base.String()), zap.String("href", href))
		return e.Base.String()
	}
	return resolved.String()
}

func (e *Extractor) resolveTime(item *goquery.Selection) string {
	if e.Time == nil {
		return ""
	}
	t := item.FindMatcher(e.Time).First()
	if t.Length() == 0 {
		return ""
	}
	if dt, ok := t.Attr("datetime"); ok {
		return strings.TrimSpace(dt)
	}
	return strings.TrimSpace(t.Text())
}
