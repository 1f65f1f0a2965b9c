package feed

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gorilla/feeds"

	"github.com/scipunch/sitefeed/fetcher/types"
)

// ContentType is the media type of encoded feeds
const ContentType = "application/rss+xml; charset=UTF-8"

// Channel is the fixed per-site metadata of a feed
type Channel struct {
	Title       string
	Link        string
	Description string
}

// Assemble builds a feed channel from metadata and items, keeping the
// items in the given order
func Assemble(meta Channel, items []types.EnrichedArticle) types.FeedChannel {
	out := make([]types.EnrichedArticle, len(items))
	copy(out, items)
	return types.FeedChannel{
		Title:       meta.Title,
		Link:        meta.Link,
		Description: meta.Description,
		Items:       out,
	}
}

// Empty returns a channel with metadata and no items
func Empty(meta Channel) types.FeedChannel {
	return Assemble(meta, nil)
}

// Encode writes the channel as an RSS 2.0 document. Items without content
// get no content:encoded element at all.
func Encode(w io.Writer, ch types.FeedChannel) error {
	rss := &feeds.RssFeed{
		Title:       ch.Title,
		Link:        ch.Link,
		Description: ch.Description,
		Items:       make([]*feeds.RssItem, 0, len(ch.Items)),
	}
	for _, it := range ch.Items {
		item := &feeds.RssItem{
			Title:   it.Ref.Title,
			Link:    it.Ref.URL,
			PubDate: it.Ref.PublishTime,
		}
		if it.Content != nil {
			item.Content = &feeds.RssContent{Content: it.Content.Markup}
		}
		rss.Items = append(rss.Items, item)
	}

	if err := feeds.WriteXML(rss, w); err != nil {
		return fmt.Errorf("failed to encode feed with %w", err)
	}
	return nil
}

// Marshal is Encode into a byte slice
func Marshal(ch types.FeedChannel) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, ch); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
