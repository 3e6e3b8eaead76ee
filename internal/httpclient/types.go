package httpclient

import "fmt"

// MaxResponseSize caps how much of a response body is read (100MB).
const MaxResponseSize = 100 * 1024 * 1024

// HTTPError carries the status code and URL of a failed request so callers
// can branch on the code instead of parsing the message.
type HTTPError struct {
	StatusCode int
	URL        string
	Message    string
}

// NewHTTPError creates an HTTPError for the given response.
func NewHTTPError(statusCode int, url, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}
