package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

func (c *Client) endpoint(path string) string {
	return c.BaseURL + path
}

// postForm sends an urlencoded POST. The token endpoints get forms rather
// than JSON so the server can rate limit on the username field.
func (c *Client) postForm(ctx context.Context, path string, form url.Values) ([]byte, error) {
	return c.doRequest(ctx, http.MethodPost, path, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()), "")
}

// doRequest sends a request and returns the body of a 2xx response, or a
// *StatusError.
func (c *Client) doRequest(ctx context.Context, method, path, contentType string, body io.Reader, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, fmt.Errorf("authsdk: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authsdk: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("authsdk: read response: %w", err)
	}
	if err := parseErrorResponse(resp, out); err != nil {
		return nil, err
	}
	return out, nil
}

// getJSON performs an authenticated GET and decodes the result into v.
func (c *Client) getJSON(ctx context.Context, path, token string, v any) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, "", nil, token)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("authsdk: decode response: %w", err)
	}
	return nil
}
