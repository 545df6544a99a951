package collector

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Channel 公告分类，取值为固定集合
type Channel string

const (
	ChannelJobs         Channel = "jobs"
	ChannelAdmitCard    Channel = "admit-card"
	ChannelResult       Channel = "result"
	ChannelAnswerKey    Channel = "answer-key"
	ChannelCutoff       Channel = "cutoff"
	ChannelNotification Channel = "notification"
	ChannelNews         Channel = "news"
)

// Channels 按排序优先级排列
var Channels = []Channel{
	ChannelJobs,
	ChannelAdmitCard,
	ChannelResult,
	ChannelAnswerKey,
	ChannelCutoff,
	ChannelNotification,
	ChannelNews,
}

// Rank 返回排序优先级，未知分类排在最后
func (c Channel) Rank() int {
	for i, ch := range Channels {
		if ch == c {
			return i
		}
	}
	return 99
}

// ParseChannel 解析分类名（忽略大小写与首尾空白）
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	if c.Rank() == 99 {
		return "", fmt.Errorf("unknown channel %q", s)
	}
	return c, nil
}

// Announcement 统一采集后的公告结构，URL 是全流程的唯一标识
type Announcement struct {
	Source  string     `json:"source"`
	Channel Channel    `json:"channel"`
	Title   string     `json:"title"`
	URL     string     `json:"url"`
	Date    *time.Time `json:"date"`
}

// Result 单个数据源一次采集的结果；错误以数据形式返回，不向上抛出
type Result struct {
	Source  string
	Items   []Announcement
	Errors  []PageError
	Dropped int
}

// Fetcher 抽象每一个数据源
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) Result
}
