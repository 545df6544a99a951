package collector

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// 页面抽取方式
const (
	ExtractorListing       = "listing"
	ExtractorTableRows     = "table-rows"
	ExtractorHeadingBlocks = "heading-blocks"
	ExtractorFeed          = "feed"
)

// 数据源配置校验错误
var (
	ErrNoSources            = errors.New("at least one source is required")
	ErrSourceMissingName    = errors.New("source name is required")
	ErrSourceMissingBaseURL = errors.New("source base_url must be an absolute http(s) url")
	ErrSourceNoPages        = errors.New("source needs at least one page")
	ErrDuplicateSource      = errors.New("duplicate source name")
	ErrPageMissingURL       = errors.New("page url must be an absolute http(s) url")
	ErrUnknownExtractor     = errors.New("unknown extractor")
	ErrNoHeadingRules       = errors.New("heading-blocks extractor needs at least one heading rule")
)

//go:embed sources.yaml
var defaultSourcesYAML []byte

// PageConfig 一个列表页：地址、兜底分类与抽取方式
type PageConfig struct {
	URL          string        `yaml:"url"`
	Channel      Channel       `yaml:"channel"`
	Extractor    string        `yaml:"extractor"`
	Label        string        `yaml:"label"`
	HeadingLevel string        `yaml:"heading_level"`
	Headings     []HeadingRule `yaml:"headings"`
}

// Name 错误信息里用来标识页面
func (p PageConfig) Name() string {
	if p.Label != "" {
		return p.Label
	}
	return p.URL
}

// SourceConfig 一个外部站点
type SourceConfig struct {
	Name    string       `yaml:"name"`
	BaseURL string       `yaml:"base_url"`
	Pages   []PageConfig `yaml:"pages"`
}

// Code 由名称生成的稳定标识，例如 "BYJU'S Exam Prep" -> "byjus-exam-prep"
func (s SourceConfig) Code() string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s.Name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case r == ' ' || r == '-' || r == '_':
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// DefaultSources 内置的数据源列表
func DefaultSources() ([]SourceConfig, error) {
	return ParseSources(defaultSourcesYAML)
}

// LoadSources 从 YAML 文件读取数据源；path 为空时使用内置列表
func LoadSources(path string) ([]SourceConfig, error) {
	if path == "" {
		return DefaultSources()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return ParseSources(data)
}

// ParseSources 解析并校验数据源配置
func ParseSources(data []byte) ([]SourceConfig, error) {
	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}
	if err := validateSources(f.Sources); err != nil {
		return nil, err
	}
	for i := range f.Sources {
		for j := range f.Sources[i].Pages {
			if f.Sources[i].Pages[j].Extractor == "" {
				f.Sources[i].Pages[j].Extractor = ExtractorListing
			}
		}
	}
	return f.Sources, nil
}

func validateSources(sources []SourceConfig) error {
	if len(sources) == 0 {
		return ErrNoSources
	}
	seen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		if strings.TrimSpace(s.Name) == "" {
			return ErrSourceMissingName
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSource, s.Name)
		}
		seen[s.Name] = struct{}{}
		if !IsAbsoluteURL(s.BaseURL) {
			return fmt.Errorf("%w: %s", ErrSourceMissingBaseURL, s.Name)
		}
		if len(s.Pages) == 0 {
			return fmt.Errorf("%w: %s", ErrSourceNoPages, s.Name)
		}
		for _, p := range s.Pages {
			if err := validatePage(p); err != nil {
				return fmt.Errorf("source %s: %w", s.Name, err)
			}
		}
	}
	return nil
}

func validatePage(p PageConfig) error {
	if !IsAbsoluteURL(p.URL) {
		return fmt.Errorf("%w: %q", ErrPageMissingURL, p.URL)
	}
	if p.Channel != "" {
		if _, err := ParseChannel(string(p.Channel)); err != nil {
			return err
		}
	}
	switch p.Extractor {
	case "", ExtractorListing, ExtractorTableRows, ExtractorFeed:
	case ExtractorHeadingBlocks:
		if len(p.Headings) == 0 {
			return ErrNoHeadingRules
		}
		for _, h := range p.Headings {
			if h.Channel == "" {
				continue
			}
			if _, err := ParseChannel(string(h.Channel)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownExtractor, p.Extractor)
	}
	return nil
}
