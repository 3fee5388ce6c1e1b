// Package gateway is the HTTP client for the hosted payment gateway: token issuance,
// payment order creation, transaction verification and the hosted checkout page.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/foodcart/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 45 * time.Second
	maxBodyBytes   = 1 << 20
)

var ErrBreakerOpen = errors.New("payment gateway circuit breaker is open")

// HTTPError is a non-2xx gateway response. Body is kept for diagnostics.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: gateway responded %d: %s", e.Op, e.StatusCode, e.Body)
}

type Config struct {
	AccountsURL  string // token issuance, e.g. https://demo-accounts.vivapayments.com
	APIURL       string // orders and transactions, e.g. https://demo-api.vivapayments.com
	CheckoutURL  string // hosted checkout page, e.g. https://demo.vivapayments.com
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	// BreakerFailures is the number of consecutive transport or 5xx failures that open the breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.AccountsURL = strings.TrimRight(cfg.AccountsURL, "/")
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.CheckoutURL = strings.TrimRight(cfg.CheckoutURL, "/")

	settings := circuitbreaker.DefaultSettings("payment-gateway")
	if cfg.BreakerFailures > 0 {
		settings.ConsecutiveFailures = cfg.BreakerFailures
	}
	if cfg.BreakerTimeout > 0 {
		settings.OpenTimeout = cfg.BreakerTimeout
	}
	settings.IsSuccessful = countsAsSuccess

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		breaker: circuitbreaker.New[[]byte](settings, logger),
		logger:  logger,
	}
}

// countsAsSuccess keeps client-side rejections such as 401 from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode < http.StatusInternalServerError
}

// do sends req through the breaker under the per-call timeout and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op string, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: build request: %w", op, err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("%s: read body: %w", op, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &HTTPError{Op: op, StatusCode: resp.StatusCode, Body: string(payload)}
		}
		return payload, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w", op, ErrBreakerOpen)
	}
	if err != nil {
		c.logger.Debug("gateway call failed", zap.String("op", op), zap.Error(err))
		return nil, err
	}
	return body, nil
}
