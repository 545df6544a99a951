package collector

import (
	"regexp"
	"strings"
)

type channelRule struct {
	channel Channel
	re      *regexp.Regexp
}

// 按顺序匹配，先命中者生效：标题同时包含 admit card 与 notification 时归为 admit-card
var channelRules = []channelRule{
	{ChannelAdmitCard, regexp.MustCompile(`\b(admit[-\s]?card|hall[-\s]?ticket|call[-\s]?letter)\b`)},
	{ChannelResult, regexp.MustCompile(`\bresults?|merit list|final selection|score ?card\b`)},
	{ChannelNotification, regexp.MustCompile(`\bnotification|releases?|announces?|corrigendum\b`)},
	{ChannelJobs, regexp.MustCompile(`\brecruitment|vacancy|apply online|application form|jobs?\b`)},
	{ChannelAnswerKey, regexp.MustCompile(`\banswer key|response key\b`)},
	{ChannelCutoff, regexp.MustCompile(`\bcut ?off\b`)},
}

// Classify 根据标题判断分类，均未命中时返回 fallback（为空则为 news）
func Classify(title string, fallback Channel) Channel {
	s := strings.ToLower(title)
	for _, r := range channelRules {
		if r.re.MatchString(s) {
			return r.channel
		}
	}
	if fallback == "" {
		return ChannelNews
	}
	return fallback
}
