package mesh

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned by NewClient when no API key was supplied
// either explicitly or through the HEURIST_API_KEY environment variable.
var ErrMissingAPIKey = errors.New("mesh: api key must be provided via WithAPIKey or the " + APIKeyEnvVar + " environment variable")

// ErrEmptyInput is returned when a request carries neither a query nor a tool.
var ErrEmptyInput = errors.New("mesh: either query or tool must be provided")

// APIError represents a non-2xx response from the mesh backend. Body holds
// the raw response body for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("mesh api error (%d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("mesh api error (%d)", e.StatusCode)
}
