package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes the reference server puts in error bodies.
const (
	ErrorCodeInsufficientScope = "insufficient_scope"
	ErrorCodeRateLimited       = "rate_limit_exceeded"
	ErrorCodeNotFound          = "not_found"
	ErrorCodeServerError       = "server_error"
)

var ErrNoToken = errors.New("authsdk: response carried no token")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode  int
	Code        string // "error" field of the body, when present
	Description string // "error_description" field of the body, when present
	Body        []byte
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("authsdk: HTTP %d: %s: %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("authsdk: HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }
func (e *StatusError) IsForbidden() bool    { return e.StatusCode == http.StatusForbidden }
func (e *StatusError) IsRateLimited() bool  { return e.StatusCode == http.StatusTooManyRequests }

// parseErrorResponse turns a response into a *StatusError, or nil on 2xx.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	se := &StatusError{StatusCode: resp.StatusCode, Body: body}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		se.Code = errResp.Error
		se.Description = errResp.ErrorDescription
	}
	return se
}
