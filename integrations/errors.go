package integrations

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-2xx answer from Trello or RingCentral.
type APIError struct {
	Service    string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned non-2xx status: %s, body: %s", e.Service, e.Status, e.Body)
}

func newAPIError(service string, resp *http.Response) *APIError {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(bodyBytes),
	}
}

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
