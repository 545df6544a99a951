package collector

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	reDateNoiseWords = regexp.MustCompile(`(?i)\b(on|added|posted)\b`)
	reDateNoisePunct = regexp.MustCompile(`[|–—•]`)
	reDayMonthYear   = regexp.MustCompile(`(\d{1,2})[-/ ]([A-Za-z]{3,})[-/ ](\d{2,4})`)
	reMonthYear      = regexp.MustCompile(`^([A-Za-z]{3,})\.?,? (\d{4})$`)
)

var monthPrefixes = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// minYear 之前的年份视为解析失败，dateparse 会把 "08.21." 这类无年份文本解析成 0 年
const minYear = 1900

// NormalizeDate 将页面上的日期文本转换为 UTC 时间，无法识别时返回 nil（不是错误）
func NormalizeDate(text string) *time.Time {
	s := cleanDateText(text)
	if s == "" {
		return nil
	}
	if t, err := dateparse.ParseIn(s, time.UTC); err == nil && t.Year() >= minYear {
		t = t.UTC()
		return &t
	}
	if t := parseDayMonthYear(s); t != nil {
		return t
	}
	return parseMonthYear(s)
}

func cleanDateText(s string) string {
	s = reDateNoiseWords.ReplaceAllString(s, "")
	s = reDateNoisePunct.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// parseDayMonthYear 兜底识别 "5-Mar-2024"、"05 March 24" 这类写法
func parseDayMonthYear(s string) *time.Time {
	m := reDayMonthYear.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	day, _ := strconv.Atoi(m[1])
	if day < 1 || day > 31 {
		return nil
	}
	month, ok := monthPrefixes[strings.ToLower(m[2][:3])]
	if !ok {
		return nil
	}
	year, _ := strconv.Atoi(m[3])
	switch len(m[3]) {
	case 2:
		// 与 time 包 "06" 布局一致：69-99 视为 19xx
		if year >= 69 {
			year += 1900
		} else {
			year += 2000
		}
	case 4:
	default:
		return nil
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return nil
	}
	return &t
}

// parseMonthYear 只有月份和年份时（"June 2024"）取当月 1 日
func parseMonthYear(s string) *time.Time {
	m := reMonthYear.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	month, ok := monthPrefixes[strings.ToLower(m[1][:3])]
	if !ok {
		return nil
	}
	year, _ := strconv.Atoi(m[2])
	if year < minYear {
		return nil
	}
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return &t
}
