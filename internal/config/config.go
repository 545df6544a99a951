package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LJTian/ExamFeed/internal/collector"
	"github.com/LJTian/ExamFeed/internal/processor"
)

const defaultChannels = "jobs,admit-card,result"

type Config struct {
	AppPort string

	PostgresDSN string
	RedisAddr   string

	CronSpec string
	WebRoot  string
	LogLevel string

	OutputPath  string
	SourcesFile string

	// Channels 来自 ONLY，"all" 表示不过滤
	Channels []string
	// Sources 来自 SOURCE，数据源名称子串
	Sources []string

	HTTPTimeout time.Duration
	HTTPRetries int
	Verbose     bool
	MaxErrors   int
}

func Load() *Config {
	return &Config{
		AppPort:     getEnv("APP_PORT", "9000"),
		PostgresDSN: getEnv("POSTGRES_DSN", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		CronSpec:    getEnv("CRON_SPEC", "0 */3 * * *"),
		WebRoot:     getEnv("WEB_ROOT", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		OutputPath:  getEnv("OUTPUT_PATH", "docs/data/coaching.json"),
		SourcesFile: getEnv("SOURCES_FILE", ""),
		Channels:    splitList(getEnv("ONLY", defaultChannels)),
		Sources:     splitList(getEnv("SOURCE", "")),
		HTTPTimeout: time.Duration(getEnvInt("HTTP_TIMEOUT_MS", 12000)) * time.Millisecond,
		HTTPRetries: getEnvInt("HTTP_RETRIES", collector.DefaultRetries),
		Verbose:     getEnvBool("DEBUG", false),
		MaxErrors:   getEnvInt("MAX_ERRORS", processor.DefaultMaxErrors),
	}
}

// ChannelFilter 校验并返回分类白名单；nil 表示不过滤
func (c *Config) ChannelFilter() ([]collector.Channel, error) {
	var out []collector.Channel
	for _, s := range c.Channels {
		if ls := strings.ToLower(strings.TrimSpace(s)); ls == "all" || ls == "*" {
			return nil, nil
		}
		ch, err := collector.ParseChannel(s)
		if err != nil {
			return nil, fmt.Errorf("ONLY: %w", err)
		}
		out = append(out, ch)
	}
	return out, nil
}

// ProcessorOptions 运行时筛选条件
func (c *Config) ProcessorOptions() (processor.Options, error) {
	channels, err := c.ChannelFilter()
	if err != nil {
		return processor.Options{}, err
	}
	return processor.Options{
		Channels:  channels,
		Sources:   c.Sources,
		Verbose:   c.Verbose,
		MaxErrors: c.MaxErrors,
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
