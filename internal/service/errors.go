package service

import (
	"errors"
	"fmt"
)

// Code identifies an error category the diner and staff UIs render a
// specific message for.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeOutOfStock        Code = "OUT_OF_STOCK"
	CodeProductNotFound   Code = "PRODUCT_NOT_FOUND"
	CodeStockCheck        Code = "STOCK_CHECK_ERROR"
	CodeDBInsert          Code = "DB_INSERT_ERROR"
	CodeDBUpdate          Code = "DB_UPDATE_ERROR"
	CodeItemsPersistence  Code = "DB_ITEMS_ERROR"
	CodePaymentNotEnabled Code = "PAYMENT_NOT_ENABLED"
	CodeGateway           Code = "GATEWAY_ERROR"
	CodeNotPaid           Code = "NOT_PAID"
	CodeNotFound          Code = "NOT_FOUND"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks against a category
var (
	ErrValidation        = &Error{Code: CodeValidation}
	ErrOutOfStock        = &Error{Code: CodeOutOfStock}
	ErrProductNotFound   = &Error{Code: CodeProductNotFound}
	ErrStockCheck        = &Error{Code: CodeStockCheck}
	ErrDBInsert          = &Error{Code: CodeDBInsert}
	ErrDBUpdate          = &Error{Code: CodeDBUpdate}
	ErrItemsPersistence  = &Error{Code: CodeItemsPersistence}
	ErrPaymentNotEnabled = &Error{Code: CodePaymentNotEnabled}
	ErrGateway           = &Error{Code: CodeGateway}
	ErrNotPaid           = &Error{Code: CodeNotPaid}
	ErrNotFound          = &Error{Code: CodeNotFound}
	ErrInvalidTransition = &Error{Code: CodeInvalidTransition}
)

// Error is a structured service failure. Message is safe to show to the
// user; Err carries the internal cause for logs.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// CodeOf extracts the code of err, falling back to INTERNAL_ERROR
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}
