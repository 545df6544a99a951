package collector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HeadingRule 标题块规则：标题文本包含 Match 时，收集其后的链接并以 Channel 作为兜底分类
type HeadingRule struct {
	Match   string  `yaml:"match"`
	Channel Channel `yaml:"channel"`
}

// ExtractTableRows 表格布局：第 0 列是类型提示，第 1 列是标题链接，第 2 列是日期
func ExtractTableRows(html, baseURL, source string) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extraction{}, &ExtractionError{Err: err}
	}

	var x Extraction
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() < 3 {
			return
		}
		a := tds.Eq(1).Find("a").First()
		href, _ := a.Attr("href")
		x.add(source, rowTypeChannel(tds.Eq(0).Text()), a.Text(), href, baseURL, tds.Eq(2).Text())
	})
	return x, nil
}

func rowTypeChannel(typeText string) Channel {
	t := strings.ToLower(strings.TrimSpace(typeText))
	switch {
	case strings.Contains(t, "result"):
		return ChannelResult
	case strings.Contains(t, "noti"):
		return ChannelNotification
	default:
		return ChannelNews
	}
}

// ExtractHeadingBlocks 标题块布局：从命中的标题开始，扫描后续兄弟节点直到下一个同级标题
func ExtractHeadingBlocks(html, baseURL, source, level string, rules []HeadingRule) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extraction{}, &ExtractionError{Err: err}
	}
	if level == "" {
		level = "h2"
	}
	level = strings.ToLower(level)

	var x Extraction
	for _, rule := range rules {
		needle := strings.ToLower(strings.TrimSpace(rule.Match))
		if needle == "" {
			continue
		}
		doc.Find(level).Each(func(_ int, h *goquery.Selection) {
			if !strings.Contains(strings.ToLower(h.Text()), needle) {
				return
			}
			for el := h.Next(); el.Length() > 0 && goquery.NodeName(el) != level; el = el.Next() {
				el.Filter("a[href]").AddSelection(el.Find("a[href]")).Each(func(_ int, a *goquery.Selection) {
					href, _ := a.Attr("href")
					x.add(source, rule.Channel, a.Text(), href, baseURL, "")
				})
			}
		})
	}
	return x, nil
}
