package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"TickerBoard/internal/errs"
	"TickerBoard/internal/logging"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetcher_Success(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"c":150,"pc":148}`)
	f := NewHTTPFetcher(time.Second, "", logging.Nop())
	body, err := f.Fetch(context.Background(), "finnhub", srv.URL+"/quote?symbol=AAPL&token=x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"c":150,"pc":148}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestHTTPFetcher_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   errs.Kind
	}{
		{"server error", http.StatusInternalServerError, "oops", errs.KindTransport},
		{"forbidden", http.StatusForbidden, "forbidden", errs.KindPremium},
		{"no access body", http.StatusUnauthorized, `{"error":"You don't have access to this resource."}`, errs.KindPremium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body)
			f := NewHTTPFetcher(time.Second, "", logging.Nop())
			_, err := f.Fetch(context.Background(), "finnhub", srv.URL)
			if got := errs.KindOf(err); got != tt.kind {
				t.Errorf("kind = %q, want %q (err: %v)", got, tt.kind, err)
			}
		})
	}
}

func TestHTTPFetcher_EmbeddedProviderError(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"Note":"Thank you for using Alpha Vantage!"}`)
	f := NewHTTPFetcher(time.Second, "", logging.Nop())
	_, err := f.Fetch(context.Background(), "alphavantage", srv.URL)
	if errs.KindOf(err) != errs.KindRateLimit {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if !strings.Contains(err.Error(), "frequency limit") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	f := NewHTTPFetcher(20*time.Millisecond, "", logging.Nop())
	_, err := f.Fetch(context.Background(), "finnhub", srv.URL)
	if errs.KindOf(err) != errs.KindTransport {
		t.Errorf("expected transport error on timeout, got %v", err)
	}
}

func TestRedact(t *testing.T) {
	got := redact("https://x/query?function=GLOBAL_QUOTE&apikey=SECRET&symbol=IBM")
	if strings.Contains(got, "SECRET") || !strings.Contains(got, "symbol=IBM") {
		t.Errorf("redact = %s", got)
	}
	if got := redact("https://x/quote?token=SECRET"); got != "https://x/quote?token=***" {
		t.Errorf("redact = %s", got)
	}
}
