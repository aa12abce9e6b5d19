package realworld

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/realworld-e2e/internal/common"
)

// ErrNotAuthenticated is returned, without touching the network, when an
// endpoint that requires a session is called on a client that has none.
var ErrNotAuthenticated = fmt.Errorf("%w: authentication required", common.ErrConfiguration)

// APIError is a response whose status is outside the endpoint's success codes.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Expected   []int
	Body       string
}

func (e *APIError) Error() string {
	want := make([]string, 0, len(e.Expected))
	for _, code := range e.Expected {
		want = append(want, fmt.Sprintf("%d", code))
	}
	return fmt.Sprintf("realworld API error: %s %s returned %d (expected %s): %s",
		e.Method, e.Endpoint, e.StatusCode, strings.Join(want, "|"), truncate(e.Body, 512))
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// isRejection reports whether the server refused the request (4xx), as opposed
// to a transport failure or a server fault
func isRejection(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
