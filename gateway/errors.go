package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport wraps failures where no response was received.
	ErrTransport = errors.New("transport failure")

	// ErrUnauthorized matches any *StatusError carrying a 401.
	ErrUnauthorized = errors.New("unauthorized")

	ErrNilRequest = errors.New("nil request")
)

// StatusError is returned for every non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempt    Attempt
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s (%s attempt)", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Attempt)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// HTTPStatus and ResponseBody let apierror.Normalize decode the detail body.
func (e *StatusError) HTTPStatus() int      { return e.StatusCode }
func (e *StatusError) ResponseBody() []byte { return e.Body }
