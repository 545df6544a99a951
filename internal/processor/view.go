package processor

import (
	"strings"

	"github.com/LJTian/ExamFeed/internal/collector"
)

// ViewFilter 阅读端的筛选条件：分类集合、数据源精确匹配、标题/来源关键词
type ViewFilter struct {
	Channels []collector.Channel
	Sources  []string
	Query    string
	Limit    int
}

// View 在调用方显式传入的快照上筛选，不依赖任何全局缓存
func View(snap *Snapshot, f ViewFilter) []collector.Announcement {
	out := make([]collector.Announcement, 0)
	if snap == nil {
		return out
	}

	channels := make(map[collector.Channel]struct{}, len(f.Channels))
	for _, c := range f.Channels {
		channels[c] = struct{}{}
	}
	sources := make(map[string]struct{}, len(f.Sources))
	for _, s := range f.Sources {
		sources[s] = struct{}{}
	}
	term := strings.ToLower(strings.TrimSpace(f.Query))

	for _, it := range snap.Items {
		if len(channels) > 0 {
			if _, ok := channels[it.Channel]; !ok {
				continue
			}
		}
		if len(sources) > 0 {
			if _, ok := sources[it.Source]; !ok {
				continue
			}
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(it.Title), term) &&
			!strings.Contains(strings.ToLower(it.Source), term) {
			continue
		}
		out = append(out, it)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}
