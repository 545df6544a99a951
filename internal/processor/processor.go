package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/LJTian/ExamFeed/internal/collector"
)

// DefaultMaxErrors verbose 模式下快照里最多保留的错误条数
const DefaultMaxErrors = 30

// Snapshot 一次运行的完整输出，写出后不再修改
type Snapshot struct {
	OK        bool                     `json:"ok"`
	UpdatedAt time.Time                `json:"updatedAt"`
	Count     int                      `json:"count"`
	Items     []collector.Announcement `json:"items"`
	Errors    []string                 `json:"errors,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// MarshalJSON verbose 模式下 Errors 非 nil，即使为空也输出 "errors": []；非 verbose 时省略该字段
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type plain Snapshot
	out := struct {
		plain
		Errors *[]string `json:"errors,omitempty"`
	}{plain: plain(s)}
	if s.Errors != nil {
		out.Errors = &s.Errors
	}
	return json.Marshal(out)
}

// Options 运行时筛选条件
type Options struct {
	// Channels 为空表示不过滤分类
	Channels []collector.Channel
	// Sources 数据源名称子串（忽略大小写），为空表示全部
	Sources   []string
	Verbose   bool
	MaxErrors int
	Now       func() time.Time
}

// Aggregate 合并各数据源结果：过滤、按 URL 去重、排序后生成快照
func Aggregate(results []collector.Result, opts Options) *Snapshot {
	var (
		items  []collector.Announcement
		errors []string
	)
	for _, r := range results {
		items = append(items, r.Items...)
		for _, e := range r.Errors {
			errors = append(errors, e.String())
		}
	}

	items = Filter(items, opts.Channels, opts.Sources)
	items = Dedupe(items)
	Sort(items)

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	snap := &Snapshot{
		OK:        true,
		UpdatedAt: now().UTC(),
		Count:     len(items),
		Items:     items,
	}
	if opts.Verbose {
		limit := opts.MaxErrors
		if limit <= 0 {
			limit = DefaultMaxErrors
		}
		if len(errors) > limit {
			errors = errors[:limit]
		}
		if errors == nil {
			errors = []string{}
		}
		snap.Errors = errors
	}
	return snap
}

// Failed 整个流程异常时的降级快照，保证消费方总能读到合法 JSON
func Failed(err error, now time.Time) *Snapshot {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &Snapshot{
		OK:        false,
		UpdatedAt: now.UTC(),
		Count:     0,
		Items:     []collector.Announcement{},
		Error:     msg,
	}
}

// Filter 按分类白名单与数据源子串过滤
func Filter(items []collector.Announcement, channels []collector.Channel, sources []string) []collector.Announcement {
	if len(channels) == 0 && len(sources) == 0 {
		return items
	}
	allowed := make(map[collector.Channel]struct{}, len(channels))
	for _, c := range channels {
		allowed[c] = struct{}{}
	}
	needles := make([]string, 0, len(sources))
	for _, s := range sources {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			needles = append(needles, s)
		}
	}

	out := make([]collector.Announcement, 0, len(items))
	for _, it := range items {
		if len(allowed) > 0 {
			if _, ok := allowed[it.Channel]; !ok {
				continue
			}
		}
		if len(needles) > 0 && !containsAny(strings.ToLower(it.Source), needles) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// Dedupe 以 URL 为键去重：保留首次出现的记录，若其日期为空则用后续重复记录的日期补齐
func Dedupe(items []collector.Announcement) []collector.Announcement {
	out := make([]collector.Announcement, 0, len(items))
	index := make(map[string]int, len(items))

	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" || !collector.IsAbsoluteURL(it.URL) {
			continue
		}
		if i, ok := index[it.URL]; ok {
			if out[i].Date == nil && it.Date != nil {
				d := *it.Date
				out[i].Date = &d
			}
			continue
		}
		index[it.URL] = len(out)
		out = append(out, it)
	}
	return out
}

// Sort 先按分类优先级，再按日期倒序，无日期的排在同分类末尾
func Sort(items []collector.Announcement) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if ra, rb := a.Channel.Rank(), b.Channel.Rank(); ra != rb {
			return ra < rb
		}
		switch {
		case a.Date == nil:
			return false
		case b.Date == nil:
			return true
		default:
			return a.Date.After(*b.Date)
		}
	})
}

// HashURL 用作存储层主键
func HashURL(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}
