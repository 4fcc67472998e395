package errs

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Third-Party Service Errors
var (
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrUnsupportedUpload  = errors.New("unsupported upload")
)

func NewRateLimitError(service string, retryAfter time.Duration) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusTooManyRequests,
		err:        ErrRateLimitExceeded,
		Details:    fmt.Sprintf("Too many requests to %s, retry after %s", service, retryAfter.Round(time.Second)),
	}
}

func NewServiceUnavailableError(service string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrServiceUnavailable,
		Details:    fmt.Sprintf("%s is not configured", service),
	}
}

func NewUnsupportedUploadError(reason string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrUnsupportedUpload,
		Details:    reason,
		Field:      "file",
	}
}
