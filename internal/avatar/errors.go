package avatar

import "fmt"

// ProviderError is a non-2xx response from the conversation API. The body is
// carried as-is; the API returns plain-text error bodies.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("avatar api error: %d - %s", e.StatusCode, e.Body)
}

// ConfigurationError means a required credential or identifier is absent.
// Unlike provider failures it is returned to the caller immediately; there is
// no degraded path for a missing replica identity.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return e.Missing + " is not configured"
}
