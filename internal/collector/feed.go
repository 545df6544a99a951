package collector

import (
	"time"

	"github.com/mmcdole/gofeed"
)

// ExtractFeed 解析 RSS/Atom（WordPress 的 /feed/ 地址），日期优先使用已解析的发布时间
func ExtractFeed(body, baseURL string, fallback Channel, source string) (Extraction, error) {
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return Extraction{}, &ExtractionError{Err: err}
	}

	var x Extraction
	for _, item := range feed.Items {
		if item == nil {
			x.Dropped++
			continue
		}
		date := item.Published
		switch {
		case item.PublishedParsed != nil:
			date = item.PublishedParsed.UTC().Format(time.RFC3339)
		case item.UpdatedParsed != nil:
			date = item.UpdatedParsed.UTC().Format(time.RFC3339)
		case date == "":
			date = item.Updated
		}
		x.add(source, fallback, item.Title, item.Link, baseURL, date)
	}
	return x, nil
}
