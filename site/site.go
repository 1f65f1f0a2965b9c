package site

import (
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/scipunch/sitefeed/feed"
	"github.com/scipunch/sitefeed/parser"
	"github.com/scipunch/sitefeed/parser/content"
	"github.com/scipunch/sitefeed/parser/listing"
)

// Definition describes how to scrape one site. Selectors are plain strings
// here and get compiled by New.
type Definition struct {
	Name        string // route name, served at "/<Name>"
	IndexURL    string // page holding the article list, also the site root
	Title       string
	Description string

	ItemSelector    string
	AnchorSelector  string
	TimeSelector    string // empty when the site shows no dates
	ContentSelector string

	// Concurrency is the number of detail pages fetched at once in
	// full-content mode
	Concurrency int
}

// Site is a compiled, read-only Definition
type Site struct {
	Name        string
	Root        string
	Meta        feed.Channel
	Concurrency int
	List        *listing.Extractor
	Content     *content.Extractor
}

// Definitions returns fresh copies of the built-in site definitions
func Definitions() []Definition {
	return []Definition{
		{
			Name:            "secrss",
			IndexURL:        "https://www.secrss.com/",
			Title:           "安全内参 - 最新资讯",
			Description:     "安全内参 - 最新资讯",
			ItemSelector:    `ul[id="article-list"] > li[class="list-item"]`,
			AnchorSelector:  "a",
			ContentSelector: `article[class="article"]`,
			Concurrency:     1,
		},
		{
			Name:            "pyn3rd",
			IndexURL:        "https://blog.pyn3rd.com/",
			Title:           "pyn3rd blog",
			Description:     "pyn3rd blog",
			ItemSelector:    `ul[class="post-list"] > li[class="post-item"]`,
			AnchorSelector:  "a",
			TimeSelector:    "time",
			ContentSelector: `article[class="post"]`,
			Concurrency:     25,
		},
	}
}

// New compiles a definition. It fails on malformed selectors or URLs so
// that such mistakes surface at startup.
func New(def Definition, log *zap.Logger) (*Site, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if def.Name == "" {
		return nil, fmt.Errorf("site definition has no name")
	}

	base, err := url.Parse(def.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("site '%s' has invalid index URL with %w", def.Name, err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("site '%s' index URL '%s' is not absolute", def.Name, def.IndexURL)
	}

	items, err := parser.Compile(def.ItemSelector)
	if err != nil {
		return nil, fmt.Errorf("site '%s' item selector: %w", def.Name, err)
	}
	anchor, err := parser.Compile(def.AnchorSelector)
	if err != nil {
		return nil, fmt.Errorf("site '%s' anchor selector: %w", def.Name, err)
	}
	body, err := parser.Compile(def.ContentSelector)
	if err != nil {
		return nil, fmt.Errorf("site '%s' content selector: %w", def.Name, err)
	}

	list := &listing.Extractor{
		Items:  items,
		Anchor: anchor,
		Base:   base,
		Logger: log.With(zap.String("site", def.Name)),
	}
	if def.TimeSelector != "" {
		if list.Time, err = parser.Compile(def.TimeSelector); err != nil {
			return nil, fmt.Errorf("site '%s' time selector: %w", def.Name, err)
		}
	}

	return &Site{
		Name: def.Name,
		Root: base.String(),
		Meta: feed.Channel{
			Title:       def.Title,
			Link:        def.IndexURL,
			Description: def.Description,
		},
		Concurrency: def.Concurrency,
		List:        list,
		Content:     &content.Extractor{Body: body},
	}, nil
}

// Builtin compiles every site this service knows about
func Builtin(log *zap.Logger) ([]*Site, error) {
	var sites []*Site
	for _, def := range Definitions() {
		s, err := New(def, log)
		if err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}
	return sites, nil
}
