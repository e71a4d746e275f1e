package airtable

import "fmt"

// AuthError means Airtable rejected the access token or its scopes.
type AuthError struct{}

func (e *AuthError) Error() string {
	return "airtable authentication failed: verify access token and scopes"
}

// NotFoundError means the requested base or table does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("airtable resource not found: %s", e.Resource)
}

// RateLimitError means the API kept returning 429 after all retries.
type RateLimitError struct{}

func (e *RateLimitError) Error() string {
	return "exceeded airtable rate limit despite retries"
}

// APIError covers every other Airtable API failure.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("airtable API error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("airtable API error (%d): %s", e.StatusCode, e.Body)
}
