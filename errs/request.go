package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	Unauthorized = NewApiErr(http.StatusUnauthorized, "unauthorized")
)

// Authentication & Authorization Errors
var (
	ErrMissingToken       = errors.New("missing access token")
	ErrExpiredToken       = errors.New("expired access token")
	ErrInvalidToken       = errors.New("invalid access token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSignature   = errors.New("invalid signature")
)

// Authentication & Authorization Error Constructors
func NewMissingTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrMissingToken,
		Details:    "Missing access token",
		Field:      "authorization",
	}
}

func NewExpiredTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrExpiredToken,
		Details:    "Access token has expired",
		Field:      "authorization",
	}
}

func NewInvalidTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidToken,
		Details:    "Invalid access token",
		Field:      "authorization",
	}
}

func NewInvalidCredentialsError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidCredentials,
		Details:    "Email or password is incorrect",
	}
}

func NewInvalidSignatureError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidSignature,
		Details:    "Request signature does not match",
		Field:      "signature",
	}
}

// NewValidationError turns a failed struct constraint into a field error
func NewValidationError(fieldName, constraint, param string) *ApiErr {
	switch constraint {
	case "required":
		return NewMissingRequiredFieldError(fieldName)
	case "oneof":
		return NewInvalidFieldError(fieldName, fmt.Sprintf("must be one of [%s]", param))
	case "uuid", "uuid4":
		return NewInvalidFieldError(fieldName, "must be a valid UUID")
	case "email":
		return NewInvalidFieldError(fieldName, "must be a valid email address")
	case "max":
		return NewInvalidFieldError(fieldName, fmt.Sprintf("must be at most %s", param))
	case "min":
		return NewInvalidFieldError(fieldName, fmt.Sprintf("must be at least %s", param))
	case "gt":
		return NewInvalidFieldError(fieldName, fmt.Sprintf("must be greater than %s", param))
	default:
		return NewInvalidFieldError(fieldName, fmt.Sprintf("failed %s constraint", constraint))
	}
}
