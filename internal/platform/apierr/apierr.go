package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ovestreet/storefront-backend/internal/storeerr"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

const (
	CodeUnauthorized      = "unauthorized"
	CodeValidation        = "validation_failed"
	CodeNotFound          = "not_found"
	CodeInsufficientStock = "insufficient_stock"
	CodeForbidden         = "forbidden"
	CodeUnknown           = "transaction_failed"
)

// FromDomain maps the store error taxonomy onto an HTTP status and stable
// error code for the response envelope.
func FromDomain(err error) *Error {
	if err == nil {
		return nil
	}
	var ve *storeerr.ValidationError
	var nf *storeerr.NotFoundError
	var is *storeerr.InsufficientStockError
	var ae *storeerr.AuthorizationError
	switch {
	case errors.As(err, &ve):
		return New(http.StatusBadRequest, CodeValidation, err)
	case errors.As(err, &nf):
		return New(http.StatusNotFound, CodeNotFound, err)
	case errors.As(err, &is):
		return New(http.StatusConflict, CodeInsufficientStock, err)
	case errors.As(err, &ae):
		return New(http.StatusForbidden, CodeForbidden, err)
	default:
		return New(http.StatusInternalServerError, CodeUnknown, err)
	}
}
