package model

import "errors"

var (
	// User related errors
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid role")

	// Token related errors
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")

	// Order related errors
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrOrderNotPayable    = errors.New("order is not awaiting payment")
	ErrPaymentSignature   = errors.New("payment signature mismatch")
	ErrInvoiceUnavailable = errors.New("invoice not available for order status")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
