package collector

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gocolly/colly/v2"
)

const (
	DefaultTimeout    = 12 * time.Second
	DefaultRetries    = 1
	DefaultBackoff    = 1200 * time.Millisecond
	DefaultMinBodyLen = 400

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// 仅请求公开的列表页，模拟浏览器请求头以减少被误拦截
var browserHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-IN,en;q=0.9",
	"Cache-Control":   "no-cache",
	"Pragma":          "no-cache",
}

// PageGetter 抓取单个页面的原始文本
type PageGetter interface {
	Get(ctx context.Context, url string) (string, error)
}

// HTTPClient 基于 colly 的页面抓取：单次超时 + 线性退避重试
type HTTPClient struct {
	Timeout    time.Duration
	Retries    int
	Backoff    time.Duration
	MinBodyLen int
	Logger     *slog.Logger
}

// NewHTTPClient 使用默认参数；timeout<=0 或 retries<0 时回落到默认值
func NewHTTPClient(timeout time.Duration, retries int, logger *slog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if retries < 0 {
		retries = DefaultRetries
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		Timeout:    timeout,
		Retries:    retries,
		Backoff:    DefaultBackoff,
		MinBodyLen: DefaultMinBodyLen,
		Logger:     logger,
	}
}

// Get 抓取页面，失败时按 Backoff×次数 等待后重试，重试耗尽返回最后一次的错误
func (h *HTTPClient) Get(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= h.Retries; attempt++ {
		body, err := h.attempt(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if attempt == h.Retries {
			break
		}
		h.Logger.Debug("fetch attempt failed", "url", url, "attempt", attempt+1, "err", err)
		if err := sleepCtx(ctx, h.Backoff*time.Duration(attempt+1)); err != nil {
			return "", lastErr
		}
	}
	return "", lastErr
}

func (h *HTTPClient) attempt(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	// 非 2xx 响应也交给 OnResponse，状态码统一在下面判断
	c := colly.NewCollector(
		colly.UserAgent(browserUserAgent),
		colly.AllowURLRevisit(),
		colly.DetectCharset(),
		colly.ParseHTTPErrorResponse(),
	)
	c.SetRequestTimeout(h.Timeout)
	c.WithTransport(&ctxTransport{ctx: ctx, base: http.DefaultTransport})

	var (
		body   []byte
		status int
	)
	c.OnRequest(func(r *colly.Request) {
		for k, v := range browserHeaders {
			r.Headers.Set(k, v)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	if err := c.Visit(url); err != nil {
		if isTimeout(ctx, err) {
			return "", &TimeoutError{URL: url, Err: err}
		}
		return "", &NetworkError{URL: url, Err: err}
	}
	if status < 200 || status > 299 {
		return "", &HTTPStatusError{URL: url, StatusCode: status}
	}

	text := string(body)
	if n := utf8.RuneCountInString(text); n < h.MinBodyLen {
		return "", &EmptyBodyError{URL: url, Length: n}
	}
	return text, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// ctxTransport 把单次请求的 context 挂到 colly 发出的请求上
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
