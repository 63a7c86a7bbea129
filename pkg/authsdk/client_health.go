package authsdk

import "context"

// GetLiveness calls GET /livez.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.getJSON(ctx, "/livez", "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReadiness calls GET /readyz. A degraded server answers 503, which comes
// back as a *StatusError whose Body still holds the checks.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.getJSON(ctx, "/readyz", "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
