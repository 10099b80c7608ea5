package oauth2

import (
	"errors"
	"net/http"
)

// ErrorCode is the wire value of the "error" parameter (RFC 6749 section 4.1.2.1).
type ErrorCode string

const (
	InvalidRequest          ErrorCode = "invalid_request"
	InvalidClient           ErrorCode = "invalid_client"
	UnauthorizedClient      ErrorCode = "unauthorized_client"
	InvalidScope            ErrorCode = "invalid_scope"
	UnsupportedResponseType ErrorCode = "unsupported_response_type"
	AccessDenied            ErrorCode = "access_denied"
	ServerErrorCode         ErrorCode = "server_error"

	// Raised while authenticating the resource owner's bearer token (RFC 6750).
	InvalidToken        ErrorCode = "invalid_token"
	UnauthorizedRequest ErrorCode = "unauthorized_request"
	InsufficientScope   ErrorCode = "insufficient_scope"
)

var statusByCode = map[ErrorCode]int{
	InvalidRequest:          http.StatusBadRequest,
	InvalidClient:           http.StatusBadRequest,
	UnauthorizedClient:      http.StatusBadRequest,
	InvalidScope:            http.StatusBadRequest,
	UnsupportedResponseType: http.StatusBadRequest,
	AccessDenied:            http.StatusBadRequest,
	ServerErrorCode:         http.StatusInternalServerError,
	InvalidToken:            http.StatusUnauthorized,
	UnauthorizedRequest:     http.StatusUnauthorized,
	InsufficientScope:       http.StatusForbidden,
}

// Status returns the default HTTP status for the code.
func (c ErrorCode) Status() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a classified OAuth2 failure.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string

	cause error
}

// Sentinels for matching with errors.Is. They match any *Error with the same code.
var (
	ErrInvalidRequest          = &Error{Code: InvalidRequest, Status: InvalidRequest.Status()}
	ErrInvalidClient           = &Error{Code: InvalidClient, Status: InvalidClient.Status()}
	ErrUnauthorizedClient      = &Error{Code: UnauthorizedClient, Status: UnauthorizedClient.Status()}
	ErrInvalidScope            = &Error{Code: InvalidScope, Status: InvalidScope.Status()}
	ErrUnsupportedResponseType = &Error{Code: UnsupportedResponseType, Status: UnsupportedResponseType.Status()}
	ErrAccessDenied            = &Error{Code: AccessDenied, Status: AccessDenied.Status()}
	ErrServerError             = &Error{Code: ServerErrorCode, Status: ServerErrorCode.Status()}
	ErrInvalidToken            = &Error{Code: InvalidToken, Status: InvalidToken.Status()}
	ErrUnauthorizedRequest     = &Error{Code: UnauthorizedRequest, Status: UnauthorizedRequest.Status()}
	ErrInsufficientScope       = &Error{Code: InsufficientScope, Status: InsufficientScope.Status()}
)

// NewError creates an error with the default status for code.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Status: code.Status(), Message: message}
}

// ServerError classifies an unknown failure as server_error, keeping its message.
func ServerError(cause error) *Error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	if message == "" {
		message = http.StatusText(http.StatusInternalServerError)
	}
	return &Error{
		Code:    ServerErrorCode,
		Status:  ServerErrorCode.Status(),
		Message: message,
		cause:   cause,
	}
}

// AsError returns err as a classified error. Anything that is not already an
// *Error becomes a server_error wrapping it.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var oauthErr *Error
	if errors.As(err, &oauthErr) {
		return oauthErr
	}
	return ServerError(err)
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches on code. A target without a message matches every error of its
// code, otherwise the messages must be equal too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// Wrap returns a copy of the error carrying cause.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.cause = cause
	return &c
}
