package fetcher

import (
	"errors"

	"github.com/adeilh/sentiscope/httpx"
)

var (
	ErrEmptyEndpoint = errors.New("fetcher: empty endpoint")
	ErrInvalidParam  = errors.New("fetcher: invalid parameter")
	ErrInvalidJSON   = errors.New("fetcher: response is not valid JSON")

	// ErrSuperseded is returned to a caller whose request was replaced by a
	// newer request for the same key.
	ErrSuperseded = errors.New("fetcher: superseded by a newer request")

	// ErrCanceled is returned to a caller whose request was aborted through
	// CancelRequests.
	ErrCanceled = errors.New("fetcher: request canceled")
)

// RetryPolicy decides whether a failed attempt is worth repeating.
type RetryPolicy func(error) bool

// DefaultRetryPolicy retries transport failures, invalid JSON bodies and
// temporary HTTP statuses (5xx, 408, 429). Other 4xx responses are final.
func DefaultRetryPolicy(err error) bool {
	var se *httpx.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

// RetryAll retries every failure regardless of status code.
func RetryAll(error) bool { return true }

// IsCancellation reports whether err means the request was aborted by a
// newer request or by CancelRequests rather than failing.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrSuperseded) || errors.Is(err, ErrCanceled)
}
