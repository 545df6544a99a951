package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind 采集错误分类
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"
	KindTimeout    ErrorKind = "timeout"
	KindHTTPStatus ErrorKind = "http_status"
	KindEmptyBody  ErrorKind = "empty_body"
	KindExtraction ErrorKind = "extraction"
	KindInternal   ErrorKind = "internal"
)

// HTTPStatusError 响应状态码非 2xx
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// EmptyBodyError 响应体过短，通常是反爬返回的空白页
type EmptyBodyError struct {
	URL    string
	Length int
}

func (e *EmptyBodyError) Error() string {
	return fmt.Sprintf("empty html (%d chars) for %s", e.Length, e.URL)
}

// TimeoutError 单次请求超时
type TimeoutError struct {
	URL string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout fetching %s: %v", e.URL, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// NetworkError 连接或 DNS 失败
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ExtractionError 页面解析失败或抽取方式配置错误
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return "extract: " + e.Err.Error() }

func (e *ExtractionError) Unwrap() error { return e.Err }

// KindOf 将任意错误映射到分类
func KindOf(err error) ErrorKind {
	var (
		statusErr  *HTTPStatusError
		emptyErr   *EmptyBodyError
		timeoutErr *TimeoutError
		netErr     *NetworkError
		extractErr *ExtractionError
		ne         net.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &statusErr):
		return KindHTTPStatus
	case errors.As(err, &emptyErr):
		return KindEmptyBody
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &extractErr):
		return KindExtraction
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &ne):
		if ne.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	default:
		return KindInternal
	}
}

// PageError 某个数据源单个页面的失败记录
type PageError struct {
	Source string
	Page   string
	Kind   ErrorKind
	Err    error
}

func newPageError(source, page string, err error) PageError {
	return PageError{Source: source, Page: page, Kind: KindOf(err), Err: err}
}

func (e PageError) String() string {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Page == "" {
		return fmt.Sprintf("%s: %s: %s", e.Source, e.Kind, msg)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Source, e.Page, e.Kind, msg)
}
