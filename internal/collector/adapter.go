package collector

import (
	"context"
	"fmt"
	"log/slog"
)

// SiteAdapter 按配置逐页抓取一个站点；单页失败只记录错误，不影响其它页面
type SiteAdapter struct {
	cfg    SourceConfig
	client PageGetter
	logger *slog.Logger
}

func NewSiteAdapter(cfg SourceConfig, client PageGetter, logger *slog.Logger) *SiteAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SiteAdapter{
		cfg:    cfg,
		client: client,
		logger: logger.With("source", cfg.Name),
	}
}

func (a *SiteAdapter) Name() string {
	return a.cfg.Name
}

// Fetch 页面按顺序抓取，一页的重试结束后才开始下一页
func (a *SiteAdapter) Fetch(ctx context.Context) Result {
	res := Result{Source: a.cfg.Name}

	for _, p := range a.cfg.Pages {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, newPageError(a.cfg.Name, p.Name(), err))
			continue
		}

		body, err := a.client.Get(ctx, p.URL)
		if err != nil {
			a.logger.Warn("fetch page failed", "page", p.Name(), "err", err)
			res.Errors = append(res.Errors, newPageError(a.cfg.Name, p.Name(), err))
			continue
		}

		x, err := extractPage(body, a.cfg, p)
		if err != nil {
			a.logger.Warn("extract page failed", "page", p.Name(), "err", err)
			res.Errors = append(res.Errors, newPageError(a.cfg.Name, p.Name(), err))
			continue
		}
		if len(x.Items) == 0 {
			a.logger.Info("page got 0 items", "page", p.Name(), "dropped", x.Dropped)
		}
		res.Items = append(res.Items, x.Items...)
		res.Dropped += x.Dropped
	}

	a.logger.Info("source done", "items", len(res.Items), "errors", len(res.Errors), "dropped", res.Dropped)
	return res
}

func extractPage(body string, src SourceConfig, p PageConfig) (Extraction, error) {
	switch p.Extractor {
	case "", ExtractorListing:
		return ExtractListing(body, src.BaseURL, p.Channel, src.Name)
	case ExtractorTableRows:
		return ExtractTableRows(body, src.BaseURL, src.Name)
	case ExtractorHeadingBlocks:
		return ExtractHeadingBlocks(body, src.BaseURL, src.Name, p.HeadingLevel, p.Headings)
	case ExtractorFeed:
		return ExtractFeed(body, src.BaseURL, p.Channel, src.Name)
	default:
		return Extraction{}, &ExtractionError{Err: fmt.Errorf("%w: %q", ErrUnknownExtractor, p.Extractor)}
	}
}

// BuildFetchers 每个数据源生成一个 SiteAdapter
func BuildFetchers(sources []SourceConfig, client PageGetter, logger *slog.Logger) []Fetcher {
	out := make([]Fetcher, 0, len(sources))
	for _, s := range sources {
		out = append(out, NewSiteAdapter(s, client, logger))
	}
	return out
}
