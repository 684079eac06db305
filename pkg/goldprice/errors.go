package goldprice

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned to API clients in the envelope's error field.
const (
	CodeManualLimit = "MANUAL_LIMIT_EXCEEDED"
	CodeAPILimit    = "API_LIMIT_EXCEEDED"
	CodeRateLimit   = "RATE_LIMIT_EXCEEDED"
	CodeConnection  = "CONNECTION_FAILED"
	CodeFetch       = "FETCH_FAILED"
	CodeQuotaBusy   = "MANUAL_LIMIT_BUSY"
)

// FetchError is a failed fetch attempt with a client-facing code and message.
type FetchError struct {
	Code    string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPStatus maps the code to the status returned by the fetch endpoint.
func (e *FetchError) HTTPStatus() int {
	switch e.Code {
	case CodeManualLimit, CodeAPILimit, CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeQuotaBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// AsFetchError unwraps err into a *FetchError.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func newFetchError(code, msg string, err error) *FetchError {
	return &FetchError{Code: code, Message: msg, Err: err}
}
