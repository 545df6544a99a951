package collector

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// 标题链接的候选选择器，按顺序尝试，先命中者生效
var titleLinkSelectors = []string{
	"h2 a[href]",
	"h3 a[href]",
	".entry-title a[href]",
	"a[rel='bookmark']",
	".post-title a[href]",
	".td-module-title a[href]",
}

const (
	articleSelector   = "article"
	containerFallback = ".post, .blog-post, .td-module-container, .elementor-post, li, .card"
	dateClassSelector = "[class*='date'], .posted-on, .post-date, .elementor-post-date"
)

// Extraction 一个页面的抽取结果；Dropped 为缺少标题或链接而被丢弃的候选数
type Extraction struct {
	Items   []Announcement
	Dropped int
}

func (x *Extraction) add(source string, fallback Channel, title, href, base string, date string) {
	title = cleanText(title)
	link := resolveURL(href, base)
	if title == "" || link == "" {
		x.Dropped++
		return
	}
	x.Items = append(x.Items, Announcement{
		Source:  source,
		Channel: Classify(title, fallback),
		Title:   title,
		URL:     link,
		Date:    NormalizeDate(date),
	})
}

// ExtractListing 通用的 WordPress 类列表页抽取：先找 article，找不到再退到常见容器
func ExtractListing(html, baseURL string, fallback Channel, source string) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extraction{}, &ExtractionError{Err: err}
	}

	var x Extraction
	doc.Find(articleSelector).Each(func(_ int, s *goquery.Selection) {
		pickListingItem(&x, s, baseURL, fallback, source)
	})
	if len(x.Items) == 0 {
		doc.Find(containerFallback).Each(func(_ int, s *goquery.Selection) {
			pickListingItem(&x, s, baseURL, fallback, source)
		})
	}
	return x, nil
}

func pickListingItem(x *Extraction, root *goquery.Selection, base string, fallback Channel, source string) {
	var a *goquery.Selection
	for _, sel := range titleLinkSelectors {
		if found := root.Find(sel); found.Length() > 0 {
			a = found.First()
			break
		}
	}
	if a == nil {
		x.Dropped++
		return
	}
	href, _ := a.Attr("href")
	x.add(source, fallback, a.Text(), href, base, dateHint(root))
}

// dateHint 优先 datetime 属性，其次 time 文本，最后是带 date 字样的 class
func dateHint(root *goquery.Selection) string {
	t := root.Find("time").First()
	if v, ok := t.Attr("datetime"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v := strings.TrimSpace(t.Text()); v != "" {
		return v
	}
	return strings.TrimSpace(root.Find(dateClassSelector).First().Text())
}

// resolveURL 相对链接按 base 拼接，只接受 http/https 绝对地址
func resolveURL(href, base string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	var u *url.URL
	if strings.HasPrefix(href, "http") {
		parsed, err := url.Parse(href)
		if err != nil {
			return ""
		}
		u = parsed
	} else {
		b, err := url.Parse(base)
		if err != nil {
			return ""
		}
		ref, err := url.Parse(href)
		if err != nil {
			return ""
		}
		u = b.ResolveReference(ref)
	}
	if !IsAbsoluteURL(u.String()) {
		return ""
	}
	return u.String()
}

// IsAbsoluteURL 是否为带主机名的 http/https 地址
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
