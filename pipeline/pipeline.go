// Package pipeline turns a site's index page into a feed.
//
// A run moves through FetchingIndex, ExtractingList, optionally
// EnrichingContent, then Assembling and Done. Only the first two stages can
// fail, and a failed run still yields a well-formed feed with no items.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/scipunch/sitefeed/feed"
	"github.com/scipunch/sitefeed/fetcher/types"
	"github.com/scipunch/sitefeed/parser"
	"github.com/scipunch/sitefeed/pool"
	"github.com/scipunch/sitefeed/site"
)

// MaxConcurrency caps detail fetches per run regardless of site settings
const MaxConcurrency = 25

// State is a stage of a pipeline run
type State int

const (
	FetchingIndex State = iota
	ExtractingList
	EnrichingContent
	Assembling
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case FetchingIndex:
		return "fetching_index"
	case ExtractingList:
		return "extracting_list"
	case EnrichingContent:
		return "enriching_content"
	case Assembling:
		return "assembling"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Pipeline runs site scrapes against a shared fetcher
type Pipeline struct {
	fetcher types.Fetcher
	log     *zap.Logger
}

// New creates a pipeline
func New(f types.Fetcher, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{fetcher: f, log: log}
}

// Run scrapes the site and returns its feed. When full is set every article
// page is fetched and its body inlined; articles whose page cannot be
// fetched or has no body are left out.
func (p *Pipeline) Run(ctx context.Context, s *site.Site, full bool) types.FeedChannel {
	log := p.log.With(zap.String("site", s.Name), zap.Bool("full", full))
	start := time.Now()

	log.Debug("pipeline stage", zap.Stringer("state", FetchingIndex), zap.String("url", s.Root))
	body, err := p.fetcher.Fetch(ctx, s.Root)
	if err != nil {
		log.Error("failed to fetch index page", zap.Stringer("state", Failed), zap.String("url", s.Root), zap.Error(err))
		return feed.Empty(s.Meta)
	}

	log.Debug("pipeline stage", zap.Stringer("state", ExtractingList))
	doc, err := parser.Parse(body)
	if err != nil {
		log.Error("failed to parse index page", zap.Stringer("state", Failed), zap.String("url", s.Root), zap.Error(err))
		return feed.Empty(s.Meta)
	}
	refs := slices.Collect(s.List.Extract(doc))
	log.Info("extracted article list", zap.Int("count", len(refs)))

	var items []types.EnrichedArticle
	if full {
		log.Debug("pipeline stage", zap.Stringer("state", EnrichingContent))
		items = p.enrich(ctx, log, s, refs)
	} else {
		items = make([]types.EnrichedArticle, 0, len(refs))
		for _, ref := range refs {
			items = append(items, types.EnrichedArticle{Ref: ref})
		}
	}

	log.Debug("pipeline stage", zap.Stringer("state", Assembling))
	ch := feed.Assemble(s.Meta, items)

	log.Info("feed built",
		zap.Stringer("state", Done),
		zap.Int("refs", len(refs)),
		zap.Int("items", len(ch.Items)),
		zap.Duration("took", time.Since(start)))
	return ch
}

func (p *Pipeline) enrich(ctx context.Context, log *zap.Logger, s *site.Site, refs []types.ArticleRef) []types.EnrichedArticle {
	jobs := make([]types.ArticleRef, 0, len(refs))
	for _, ref := range refs {
		if sameURL(ref.URL, s.Root) {
			log.Warn("skipping self-referential article", zap.String("title", ref.Title))
			continue
		}
		jobs = append(jobs, ref)
	}

	limit := min(s.Concurrency, MaxConcurrency)
	results := pool.Map(ctx, limit, jobs, func(ctx context.Context, ref types.ArticleRef) (types.ArticleContent, error) {
		return p.fetchContent(ctx, s, ref.URL)
	})

	items := make([]types.EnrichedArticle, 0, len(results))
	var failed int
	for _, r := range results {
		ref := jobs[r.Index]
		if r.Err != nil {
			failed++
			log.Warn("failed to fetch article content",
				zap.String("url", ref.URL), zap.String("title", ref.Title), zap.Error(r.Err))
			continue
		}
		c := r.Value
		items = append(items, types.EnrichedArticle{Ref: ref, Content: &c})
	}

	log.Info("article content fetched",
		zap.Int("requested", len(jobs)),
		zap.Int("failed", failed),
		zap.Int("concurrency", limit))
	return items
}

func (p *Pipeline) fetchContent(ctx context.Context, s *site.Site, url string) (types.ArticleContent, error) {
	body, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return types.ArticleContent{}, err
	}
	doc, err := parser.Parse(body)
	if err != nil {
		return types.ArticleContent{}, err
	}
	c, err := s.Content.Extract(doc)
	if err != nil {
		return types.ArticleContent{}, fmt.Errorf("failed to extract content of '%s' with %w", url, err)
	}
	return c, nil
}

func sameURL(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}
