package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

// Server response codes.
const (
	CodeMalformedRequest Code = "malformed_request"
	CodeNotFound         Code = "not_found"
	CodeConflict         Code = "conflict"
	CodeTimeout          Code = "timeout"
	CodeHTTPFailure      Code = "http_failure"
)

// Authentication codes.
const (
	CodeAuthFailure         Code = "auth_failure"
	CodeInvalidAuthResponse Code = "invalid_auth_response"
)

// Contract codes, raised before any network call.
const (
	CodeInvalidDataType         Code = "invalid_data_type"
	CodeNoIdentification        Code = "no_identification"
	CodeMultipleIdentifications Code = "multiple_identifications"
	CodeInvalidSubset           Code = "invalid_subset"
	CodeNoParametersOrData      Code = "no_parameters_or_data"
	CodeParametersAndData       Code = "parameters_and_data"
	CodeMissingParameters       Code = "missing_parameters"
	CodeInvalidParameterOptions Code = "invalid_parameter_options"
	CodeConflictingParameters   Code = "conflicting_parameters"
)

var ErrMissingBaseURL = errors.New("jamfpro: base url is required")

type Error struct {
	Code       Code
	Message    string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}

	if e.Err != nil {
		return e.Err.Error()
	}

	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// FromResponse classifies a server status. It returns nil for 2xx.
func FromResponse(status int, body string) *Error {
	if status >= 200 && status < 300 {
		return nil
	}

	var code Code
	var message string
	switch status {
	case http.StatusBadRequest:
		code, message = CodeMalformedRequest, "malformed request: "+body
	case http.StatusNotFound:
		code, message = CodeNotFound, "not found: "+body
	case http.StatusConflict:
		code, message = CodeConflict, "conflict: "+body
	case http.StatusBadGateway:
		code, message = CodeTimeout, "timed out: "+body
	default:
		code, message = CodeHTTPFailure, fmt.Sprintf("request failed with status %d: %s", status, body)
	}

	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: status,
		Body:       body,
	}
}

func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var typed *Error
	if !errors.As(err, &typed) {
		return ""
	}
	return typed.Code
}

func IsProgrammerError(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidDataType,
		CodeNoIdentification,
		CodeMultipleIdentifications,
		CodeInvalidSubset,
		CodeNoParametersOrData,
		CodeParametersAndData,
		CodeMissingParameters,
		CodeInvalidParameterOptions,
		CodeConflictingParameters:
		return true
	}
	return false
}
