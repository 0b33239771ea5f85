package nwc

import (
	"errors"
	"fmt"
)

// Errors produced locally, before or after talking to the wallet service.
// All of them are wrapped with context, match with errors.Is.
var (
	ErrMalformedURI      = errors.New("malformed connection URI")
	ErrInvalidKey        = errors.New("invalid key")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrTimeout           = errors.New("request timed out")
	ErrNoRelay           = errors.New("couldn't connect to any relay")
)

// ErrorCode is a NIP-47 error code reported by the wallet service.
type ErrorCode string

const (
	RateLimited           ErrorCode = "RATE_LIMITED"
	NotImplemented        ErrorCode = "NOT_IMPLEMENTED"
	InsufficientBalance   ErrorCode = "INSUFFICIENT_BALANCE"
	QuotaExceeded         ErrorCode = "QUOTA_EXCEEDED"
	Restricted            ErrorCode = "RESTRICTED"
	Unauthorized          ErrorCode = "UNAUTHORIZED"
	Internal              ErrorCode = "INTERNAL"
	UnsupportedEncryption ErrorCode = "UNSUPPORTED_ENCRYPTION"
	PaymentFailed         ErrorCode = "PAYMENT_FAILED"
	NotFound              ErrorCode = "NOT_FOUND"
	Other                 ErrorCode = "OTHER"
)

// ResponseError is a semantic error reported by the wallet service inside a
// response envelope. Codes outside the NIP-47 set are passed through as-is.
type ResponseError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (err *ResponseError) Error() string {
	return fmt.Sprintf("%s %s", err.Code, err.Message)
}
