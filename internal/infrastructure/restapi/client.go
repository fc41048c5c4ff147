// Package restapi is the resty-backed Transport to the ratings REST API.
package restapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storerate/rating-client/internal/core/ports"
)

const requestIDHeader = "X-Request-ID"

type Options struct {
	BaseURL string
	// Timeout of zero leaves requests bounded by their context only.
	Timeout   time.Duration
	UserAgent string
}

// Client issues JSON requests against BaseURL. Non-2xx responses are
// returned as-is; only a missing response is an error.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

var _ ports.Transport = (*Client)(nil)

func New(opts Options, log zerolog.Logger) *Client {
	ua := opts.UserAgent
	if ua == "" {
		ua = "ratingctl/1.0"
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", ua).
		SetLogger(restyLogger{log})
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	return &Client{http: c, log: log}
}

func (c *Client) Do(ctx context.Context, req ports.Request) (*ports.Response, error) {
	id := uuid.NewString()
	r := c.http.R().
		SetContext(ctx).
		SetHeader(requestIDHeader, id).
		SetHeader("Content-Type", "application/json")

	if req.Token != "" {
		r.SetAuthToken(req.Token)
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		c.log.Debug().Err(err).
			Str("request_id", id).
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("request failed")
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}

	c.log.Debug().
		Str("request_id", id).
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("request completed")

	return &ports.Response{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}

// restyLogger routes resty's internal messages to zerolog.
type restyLogger struct {
	log zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error().Msgf(strings.TrimSpace(format), v...)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn().Msgf(strings.TrimSpace(format), v...)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug().Msgf(strings.TrimSpace(format), v...)
}

var _ resty.Logger = restyLogger{}
