package kratos

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vwency/auth-gateway/pkg/logger"
	"github.com/vwency/auth-gateway/pkg/metrics"
)

// Default connection pool and timeout settings for the provider transport.
const (
	DefaultRequestTimeout      = 30 * time.Second
	DefaultConnectTimeout      = 10 * time.Second
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultMaxIdleConnsPerHost = 10
)

// Config bundles everything required to construct a Client.
type Config struct {
	// PublicURL is the base URL of the provider's self-service API.
	PublicURL string
	// AdminURL is the base URL of the provider's admin API.
	AdminURL string

	// HTTPClient overrides the built transport. Redirect following is
	// disabled on it regardless, so the fetcher can intercept redirects
	// itself.
	HTTPClient *http.Client

	RequestTimeout      time.Duration
	ConnectTimeout      time.Duration
	IdleConnTimeout     time.Duration
	MaxIdleConnsPerHost int
}

// Client conducts self-service flows against the identity provider. One
// instance is constructed at process start and shared by every orchestrator;
// it holds no per-flow state beyond the outbound connection pool.
type Client struct {
	publicURL string
	adminURL  string
	http      *http.Client
	log       *zap.Logger
}

// New validates the configuration and builds a Client.
func New(cfg Config) (*Client, error) {
	publicURL := strings.TrimRight(strings.TrimSpace(cfg.PublicURL), "/")
	if publicURL == "" {
		return nil, errors.New("kratos: public url must be provided")
	}
	adminURL := strings.TrimRight(strings.TrimSpace(cfg.AdminURL), "/")
	if adminURL == "" {
		return nil, errors.New("kratos: admin url must be provided")
	}

	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	idleTimeout := cfg.IdleConnTimeout
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleConnTimeout
	}
	maxIdle := cfg.MaxIdleConnsPerHost
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdleConnsPerHost
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: connectTimeout,
				}).DialContext,
				MaxIdleConnsPerHost: maxIdle,
				IdleConnTimeout:     idleTimeout,
			},
		}
	}
	// The orchestrators must see redirects to capture the flow id; an
	// auto-following transport would lose the correlation.
	httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		publicURL: publicURL,
		adminURL:  adminURL,
		http:      httpClient,
		log:       logger.WithModule("kratos"),
	}, nil
}

// do performs a single provider request, returning the response and its fully
// read body. Transport failures become network flow errors.
func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, cookies CookieSet) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, nil, NetworkError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(cookies) > 0 {
		req.Header.Set("Cookie", cookies.Header())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ProviderErrors.WithLabelValues(KindNetwork.String()).Inc()
		return nil, nil, NetworkError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ProviderErrors.WithLabelValues(KindNetwork.String()).Inc()
		return nil, nil, NetworkError(err)
	}

	return resp, payload, nil
}

// readBody drains an already-obtained response, mapping read failures to
// network errors.
func readBody(resp *http.Response) ([]byte, error) {
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ProviderErrors.WithLabelValues(KindNetwork.String()).Inc()
		return nil, NetworkError(err)
	}
	return payload, nil
}

func isRedirect(status int) bool {
	return status == http.StatusFound || status == http.StatusSeeOther
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}
