package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/greut/picture/picture"
	"github.com/greut/picture/source"
)

// HTTPError represents a HTTP error to be shown to the user.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error formats the HTTPError message.
func (e HTTPError) Error() string {
	return fmt.Sprintf("%d (%s) %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// toHTTPError maps the errors of the providers to statuses.
func toHTTPError(err error) HTTPError {
	var e HTTPError
	switch {
	case errors.As(err, &e):
		return e
	case errors.Is(err, source.ErrNotFound), errors.Is(err, picture.ErrNoIdentifier):
		return HTTPError{http.StatusNotFound, err.Error()}
	case errors.Is(err, source.ErrUnsupported):
		return HTTPError{http.StatusNotImplemented, err.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return HTTPError{http.StatusServiceUnavailable, err.Error()}
	}
	return HTTPError{http.StatusInternalServerError, err.Error()}
}
