package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// AccessToken exchanges the client credentials for a short-lived bearer token.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	const op = "access token"

	body, err := c.do(ctx, op, func(ctx context.Context) (*http.Request, error) {
		form := url.Values{"grant_type": {"client_credentials"}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.AccountsURL+"/connect/token", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%s: %w", op, errors.New("response has no access_token"))
	}
	return tr.AccessToken, nil
}
