// Package apierror normalizes failures from the API into one stable shape
// that UI layers can render without knowing how the server phrased them.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind mirrors the server's msgtype field.
type Kind string

const (
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

const (
	CodeGeneric    = "GENERIC_ERROR"
	CodeValidation = "VALIDATION_ERROR"

	GenericMessage = "An error occurred. Please try again."
)

// Error is the normalized {code, message, kind} shape.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Kind       Kind   `json:"msgtype"`
	StatusCode int    `json:"-"` // 0 when no response was received

	cause error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// ResponseError is implemented by transport errors that carry a response.
type ResponseError interface {
	error
	HTTPStatus() int
	ResponseBody() []byte
}

// Generic wraps cause in the fallback shape.
func Generic(cause error) *Error {
	return &Error{Code: CodeGeneric, Message: GenericMessage, Kind: KindError, cause: cause}
}

// userMessager is implemented by errors that carry display text separate
// from their Go message.
type userMessager interface {
	UserMessage() string
}

// Validation reports a field check that failed before any request was made.
func Validation(field string, cause error) *Error {
	msg := field
	var um userMessager
	switch {
	case errors.As(cause, &um):
		msg = fmt.Sprintf("%s: %s", field, um.UserMessage())
	case cause != nil:
		msg = fmt.Sprintf("%s: %s", field, cause.Error())
	}
	return &Error{Code: CodeValidation, Message: msg, Kind: KindWarning, cause: cause}
}

// Normalize converts any error into *Error. Errors already normalized pass
// through, responses with a detail body are decoded, everything else gets
// the generic fallback. A nil error returns nil.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var respErr ResponseError
	if errors.As(err, &respErr) {
		e := FromBody(respErr.HTTPStatus(), respErr.ResponseBody())
		e.cause = err
		return e
	}

	return Generic(err)
}

type detailEnvelope struct {
	Detail json.RawMessage `json:"detail"`
}

type detailObject struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	MsgType Kind   `json:"msgtype"`
}

// validationItem is one entry of a 422 response.
type validationItem struct {
	Msg string `json:"msg"`
}

// FromBody decodes the detail field of an error response. detail may be a
// plain string, an object {code, message, msgtype} or a validation list.
func FromBody(status int, body []byte) *Error {
	e := Generic(nil)
	e.StatusCode = status

	var env detailEnvelope
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return e
	}

	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		if s != "" {
			e.Message = s
		}
		return e
	}

	var obj detailObject
	if err := json.Unmarshal(env.Detail, &obj); err == nil && (obj.Code != "" || obj.Message != "") {
		if obj.Code != "" {
			e.Code = obj.Code
		}
		if obj.Message != "" {
			e.Message = obj.Message
		}
		if obj.MsgType != "" {
			e.Kind = obj.MsgType
		}
		return e
	}

	var items []validationItem
	if err := json.Unmarshal(env.Detail, &items); err == nil && len(items) > 0 && items[0].Msg != "" {
		e.Code = CodeValidation
		e.Message = items[0].Msg
		e.Kind = KindWarning
	}
	return e
}
