package config

import (
	"testing"
	"time"

	"github.com/LJTian/ExamFeed/internal/collector"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	t.Setenv(key, "")
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	t.Setenv(key, "8080")
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestGetEnvIntAndBool(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := getEnvInt("TEST_INT", 1); got != 42 {
		t.Fatalf("getEnvInt = %d, want 42", got)
	}
	t.Setenv("TEST_INT", "abc")
	if got := getEnvInt("TEST_INT", 1); got != 1 {
		t.Fatalf("invalid int should fall back, got %d", got)
	}

	for in, want := range map[string]bool{"1": true, "TRUE": true, "yes": true, "0": false, "off": false} {
		t.Setenv("TEST_BOOL", in)
		if got := getEnvBool("TEST_BOOL", !want); got != want {
			t.Fatalf("getEnvBool(%q) = %v, want %v", in, got, want)
		}
	}
	t.Setenv("TEST_BOOL", "")
	if !getEnvBool("TEST_BOOL", true) {
		t.Fatalf("empty bool should use default")
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "ONLY", "SOURCE", "HTTP_TIMEOUT_MS", "HTTP_RETRIES", "DEBUG", "MAX_ERRORS", "OUTPUT_PATH", "CRON_SPEC"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.AppPort != "9000" {
		t.Fatalf("AppPort = %q", cfg.AppPort)
	}
	if cfg.OutputPath != "docs/data/coaching.json" {
		t.Fatalf("OutputPath = %q", cfg.OutputPath)
	}
	if cfg.HTTPTimeout != 12*time.Second || cfg.HTTPRetries != 1 {
		t.Fatalf("unexpected http settings: %v / %d", cfg.HTTPTimeout, cfg.HTTPRetries)
	}
	if cfg.Verbose || cfg.MaxErrors != 30 {
		t.Fatalf("unexpected debug settings: %v / %d", cfg.Verbose, cfg.MaxErrors)
	}
	if cfg.CronSpec != "0 */3 * * *" {
		t.Fatalf("CronSpec = %q", cfg.CronSpec)
	}

	channels, err := cfg.ChannelFilter()
	if err != nil {
		t.Fatalf("ChannelFilter error: %v", err)
	}
	want := []collector.Channel{collector.ChannelJobs, collector.ChannelAdmitCard, collector.ChannelResult}
	if len(channels) != len(want) {
		t.Fatalf("channels = %v, want %v", channels, want)
	}
	for i := range want {
		if channels[i] != want[i] {
			t.Fatalf("channels = %v, want %v", channels, want)
		}
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ONLY", " result , answer-key ")
	t.Setenv("SOURCE", "testbook,Adda")
	t.Setenv("HTTP_TIMEOUT_MS", "500")
	t.Setenv("DEBUG", "1")

	cfg := Load()
	opts, err := cfg.ProcessorOptions()
	if err != nil {
		t.Fatalf("ProcessorOptions error: %v", err)
	}
	if len(opts.Channels) != 2 || opts.Channels[1] != collector.ChannelAnswerKey {
		t.Fatalf("unexpected channels: %v", opts.Channels)
	}
	if len(opts.Sources) != 2 || opts.Sources[1] != "Adda" {
		t.Fatalf("unexpected sources: %v", opts.Sources)
	}
	if !opts.Verbose || cfg.HTTPTimeout != 500*time.Millisecond {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestChannelFilterAllAndInvalid(t *testing.T) {
	for _, v := range []string{"all", "ALL", " All ", "*"} {
		cfg := &Config{Channels: []string{v}}
		channels, err := cfg.ChannelFilter()
		if err != nil || channels != nil {
			t.Fatalf("%q should disable filtering, got %v %v", v, channels, err)
		}
	}

	t.Setenv("ONLY", "ALL")
	if channels, err := Load().ChannelFilter(); err != nil || channels != nil {
		t.Fatalf("ONLY=ALL should disable filtering, got %v %v", channels, err)
	}

	cfg := &Config{Channels: []string{"jobs", "gossip"}}
	if _, err := cfg.ChannelFilter(); err == nil {
		t.Fatalf("expected error for unknown channel")
	}
	if _, err := cfg.ProcessorOptions(); err == nil {
		t.Fatalf("ProcessorOptions should surface the channel error")
	}
}
