package errs

import (
	"strconv"
	"strings"
)

// CodeError is the JSON shape every API failure is rendered as.
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) CodeError {
	return CodeError{Code: code, Msg: msg}
}

func (e CodeError) WithDetail(detail string) CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// Common API errors. Codes follow HTTP status semantics so handlers can
// reuse them for the response status.
var (
	ErrBadRequest   = NewCodeError(400, "bad request")
	ErrUnauthorized = NewCodeError(401, "unauthorized")
	ErrForbidden    = NewCodeError(403, "forbidden")
	ErrNotFound     = NewCodeError(404, "not found")
	ErrInternal     = NewCodeError(500, "internal server error")
	ErrTokenExpired = NewCodeError(401, "token expired or invalid")
)
