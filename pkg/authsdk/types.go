package authsdk

import "time"

// ErrorResponse is the body of an error answered by the reference server
// outside the token endpoints.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	// Status is "ok", or "degraded" when a readiness check failed
	Status string `json:"status"`

	// Uptime is the service uptime as a duration string (e.g. "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	Version string `json:"version,omitempty"`

	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each readiness dependency.
type HealthChecks struct {
	Database string `json:"database"`
}

// MeResponse describes the token that made the request.
type MeResponse struct {
	Subject       string   `json:"sub"`
	Username      string   `json:"username,omitempty"`
	PreferredName string   `json:"preferred_name,omitempty"`
	Roles         []string `json:"roles,omitempty"`

	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Claims holds every claim except iat and exp.
	Claims map[string]any `json:"claims"`
}

// UserResponse is a stored user as returned by GET /v1/users/{username}.
type UserResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	PreferredName string    `json:"preferred_name"`
	Roles         []string  `json:"roles"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
