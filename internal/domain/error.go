package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Payment / activation errors
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrPageMismatch        = errors.New("session does not belong to this gift page")
	ErrInvalidSignature    = errors.New("invalid webhook signature")

	// Activation code errors
	ErrCodeNotFound    = errors.New("invalid or inactive code")
	ErrCodeExpired     = errors.New("code has expired")
	ErrCodeExhausted   = errors.New("no uses remaining")
	ErrCodeAlreadyUsed = errors.New("page already has a code activated")
)
