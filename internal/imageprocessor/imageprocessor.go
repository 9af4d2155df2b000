package imageprocessor

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/example/nail-salon/internal/color"
)

// ErrEmptyImage is returned before any network I/O when no image bytes are given.
var ErrEmptyImage = errors.New("image is empty")

// Client submits a captured hand photo together with the selected color and
// returns the processed image bytes exactly as the service sent them.
type Client interface {
	Submit(ctx context.Context, image []byte, c color.Color) ([]byte, error)
}

// ServerError reports a response with a status other than 200.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("image processor responded with status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// TransportError reports a failure to complete the exchange: the connection
// could not be made, or the response could not be read.
type TransportError struct {
	Detail string
	Err    error
}

func (e *TransportError) Error() string {
	return "image processor transport failure: " + e.Detail
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps err, taking its message as the detail.
func NewTransportError(err error) *TransportError {
	return &TransportError{Detail: err.Error(), Err: err}
}
