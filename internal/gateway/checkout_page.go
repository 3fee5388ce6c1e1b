package gateway

import (
	"errors"
	"net/url"
	"strings"
)

const resultPath = "/web/checkout/result"

var ErrMissingTransactionID = errors.New("checkout result url has no transaction id")

// CheckoutURL is the hosted page the user pays on.
func (c *Client) CheckoutURL(orderCode string) string {
	return c.cfg.CheckoutURL + "/web/checkout?ref=" + url.QueryEscape(orderCode)
}

// ParseResult inspects a URL the embedded browser navigated to, accepting only the result
// page served from the configured checkout host.
func (c *Client) ParseResult(rawURL string) (transactionID string, ok bool, err error) {
	return ParseResultFor(c.cfg.CheckoutURL, rawURL)
}

// ParseResultFor matches rawURL against the result page of the checkout site at checkoutURL.
// ok is false for any other URL, including the same path on a different host.
// A result page without t yields ErrMissingTransactionID.
func ParseResultFor(checkoutURL, rawURL string) (transactionID string, ok bool, err error) {
	site, err := url.Parse(checkoutURL)
	if err != nil || site.Host == "" {
		return "", false, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false, nil
	}
	if !strings.EqualFold(u.Host, site.Host) || strings.TrimRight(u.Path, "/") != resultPath {
		return "", false, nil
	}
	t := strings.TrimSpace(u.Query().Get("t"))
	if t == "" {
		return "", true, ErrMissingTransactionID
	}
	return t, true, nil
}
