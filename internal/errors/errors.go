package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	NotFound            ErrorCode = "not_found"
	AccountNotFound     ErrorCode = "account_not_found"
	DepositNotFound     ErrorCode = "deposit_not_found"
	WithdrawalNotFound  ErrorCode = "withdrawal_not_found"
	PlanNotFound        ErrorCode = "plan_not_found"
	AlreadyProcessed    ErrorCode = "already_processed"
	InsufficientBalance ErrorCode = "insufficient_balance"
	InvalidAmount       ErrorCode = "invalid_amount"
	InvalidInput        ErrorCode = "invalid_input"
	InvalidStatus       ErrorCode = "invalid_status"
	TransientConflict   ErrorCode = "transient_conflict"
	DuplicateAccount    ErrorCode = "duplicate_account"
	AccountDisabled     ErrorCode = "account_disabled"
	Unauthorized        ErrorCode = "unauthorized"
	Forbidden           ErrorCode = "forbidden"
	RateLimitExceeded   ErrorCode = "rate_limit_exceeded"
	InternalError       ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any AppError carrying the same code, so callers can test
// against the predefined values below with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetails returns a copy of the error with details attached. The
// predefined errors are shared and must never be mutated.
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// HTTPStatus maps the error code to the response status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case NotFound, AccountNotFound, DepositNotFound, WithdrawalNotFound, PlanNotFound:
		return http.StatusNotFound
	case AlreadyProcessed, TransientConflict, DuplicateAccount:
		return http.StatusConflict
	case InsufficientBalance:
		return http.StatusUnprocessableEntity
	case InvalidAmount, InvalidInput, InvalidStatus:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden, AccountDisabled:
		return http.StatusForbidden
	case RateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// InsufficientBalanceError reports both values so operators can see why an
// approval or placement was refused.
func InsufficientBalanceError(current, requested fmt.Stringer) *AppError {
	return NewAppErrorf(InsufficientBalance,
		"insufficient balance: current %s, requested %s", current, requested)
}

// Predefined errors for common cases
var (
	ErrNotFound            = NewAppError(NotFound, "resource not found")
	ErrAccountNotFound     = NewAppError(AccountNotFound, "account not found")
	ErrDepositNotFound     = NewAppError(DepositNotFound, "deposit request not found")
	ErrWithdrawalNotFound  = NewAppError(WithdrawalNotFound, "withdrawal request not found")
	ErrPlanNotFound        = NewAppError(PlanNotFound, "investment plan not found")
	ErrAlreadyProcessed    = NewAppError(AlreadyProcessed, "request has already been processed")
	ErrInsufficientBalance = NewAppError(InsufficientBalance, "insufficient balance")
	ErrInvalidAmount       = NewAppError(InvalidAmount, "amount must be greater than zero")
	ErrInvalidInput        = NewAppError(InvalidInput, "invalid input")
	ErrInvalidStatus       = NewAppError(InvalidStatus, "status must be approved or rejected")
	ErrTransientConflict   = NewAppError(TransientConflict, "concurrent modification, retries exhausted")
	ErrDuplicateAccount    = NewAppError(DuplicateAccount, "account already exists")
	ErrAccountDisabled     = NewAppError(AccountDisabled, "account is disabled")
	ErrUnauthorized        = NewAppError(Unauthorized, "authentication required")
	ErrForbidden           = NewAppError(Forbidden, "insufficient permissions")
	ErrInternal            = NewAppError(InternalError, "an unexpected error occurred")
)

// IsNotFound reports whether err is any of the not-found codes.
func IsNotFound(err error) bool {
	appErr, ok := AsAppError(err)
	if !ok {
		return false
	}
	switch appErr.Code {
	case NotFound, AccountNotFound, DepositNotFound, WithdrawalNotFound, PlanNotFound:
		return true
	}
	return false
}

// AsAppError unwraps err to an *AppError if one is in its chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
