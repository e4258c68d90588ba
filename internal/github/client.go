package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"
)

type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

type options struct {
	verbose bool
	// logger receives one debug line per request/response when verbose is set,
	// so structured output on stdout (e.g. NDJSON) stays clean.
	logger  *slog.Logger
	baseURL string
	wrap    []func(http.RoundTripper) http.RoundTripper
}

type Option func(*options)

func WithVerbose(enabled bool, logger *slog.Logger) Option {
	return func(o *options) {
		o.verbose = enabled
		o.logger = logger
	}
}

// WithBaseURL points the REST client at a different API root (GitHub Enterprise
// Server, or a local test server). A trailing slash is added when missing.
func WithBaseURL(raw string) Option {
	return func(o *options) {
		o.baseURL = raw
	}
}

// WithTransport wraps the innermost transport, below authentication and
// logging. Used for request metrics.
func WithTransport(wrap func(http.RoundTripper) http.RoundTripper) Option {
	return func(o *options) {
		if wrap != nil {
			o.wrap = append(o.wrap, wrap)
		}
	}
}

// loggingRoundTripper wraps an underlying transport and emits one line per
// request and response (including latency) when verbose logging is enabled.
type loggingRoundTripper struct {
	base   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debug("github api request", "method", req.Method, "url", req.URL.String())
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.logger.Debug("github api error", "method", req.Method, "duration", dur, "error", err)
	} else {
		t.logger.Debug("github api response", "method", req.Method, "status", resp.StatusCode, "duration", dur)
	}
	return resp, err
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.logger == nil {
		o.logger = slog.Default()
	}

	transport := http.DefaultTransport
	for _, wrap := range o.wrap {
		transport = wrap(transport)
	}
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, logger: o.logger}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	// Always provide an http.Client so verbose logging works even without a token.
	tc := &http.Client{Transport: transport}

	client := github.NewClient(tc)
	if o.baseURL != "" {
		u, err := parseBaseURL(o.baseURL)
		if err != nil {
			return nil, err
		}
		client.BaseURL = u
	}

	return &Client{
		Client: client,
		HTTP:   tc,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("github client: invalid base url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("github client: base url %q must be http or https", raw)
	}
	return u, nil
}
