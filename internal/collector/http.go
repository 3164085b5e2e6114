package collector

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"TickerBoard/internal/errs"
	"TickerBoard/internal/metrics"
	"TickerBoard/internal/normalizer"
)

const (
	DefaultTimeout = 15 * time.Second
	maxErrorBody   = 200
)

// HTTPFetcher talks to provider REST APIs.
type HTTPFetcher struct {
	client *resty.Client
	log    *zap.SugaredLogger
}

// NewHTTPFetcher creates a fetcher with a per-call timeout and optional proxy.
func NewHTTPFetcher(timeout time.Duration, proxyURL string, log *zap.SugaredLogger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "TickerBoard/1.0")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &HTTPFetcher{client: client, log: log}
}

func (f *HTTPFetcher) Name() string { return "http" }

// Fetch GETs url. Non-2xx statuses are transport errors, 403 is reported as
// a premium error, and 2xx bodies carrying a provider error marker come back
// as provider errors so they never reach the cache.
func (f *HTTPFetcher) Fetch(ctx context.Context, provider, url string) ([]byte, error) {
	start := time.Now()
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(provider, string(errs.KindTransport)).Inc()
		return nil, errs.Transport(provider, err, "%s request failed: %v", provider, err)
	}

	body := resp.Body()
	status := resp.StatusCode()
	f.log.Debugf("GET %s %s -> %d in %s", provider, redact(url), status, time.Since(start).Round(time.Millisecond))

	if status < 200 || status >= 300 {
		e := errs.Transport(provider, nil, "%s API error: %d - %s", provider, status, truncate(string(body)))
		if status == 403 || strings.Contains(string(body), "You don't have access") {
			e.Kind = errs.KindPremium
		}
		metrics.ProviderCalls.WithLabelValues(provider, string(e.Kind)).Inc()
		return nil, e
	}

	if ep := normalizer.DetectError(body, provider); ep != nil {
		metrics.ProviderCalls.WithLabelValues(provider, string(ep.ErrorKind)).Inc()
		return nil, ep.Err()
	}

	metrics.ProviderCalls.WithLabelValues(provider, "ok").Inc()
	return body, nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}

// redact hides API keys from logged URLs.
func redact(url string) string {
	for _, p := range []string{"apikey=", "token=", "apiKey="} {
		i := strings.Index(url, p)
		if i < 0 {
			continue
		}
		j := i + len(p)
		end := strings.IndexByte(url[j:], '&')
		if end < 0 {
			url = url[:j] + "***"
		} else {
			url = url[:j] + "***" + url[j+end:]
		}
	}
	return url
}

var _ Fetcher = (*HTTPFetcher)(nil)
