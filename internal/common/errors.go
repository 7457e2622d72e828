package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 에러 분류 (HTTP 상태 코드로 변환되는 닫힌 집합)
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindNotFound
	KindConflict
	KindInvalid
	KindUnavailable
)

type kindInfo struct {
	status int
	code   string
}

var kindTable = map[Kind]kindInfo{
	KindInternal:     {http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	KindUnauthorized: {http.StatusUnauthorized, "UNAUTHORIZED"},
	KindNotFound:     {http.StatusNotFound, "NOT_FOUND"},
	KindConflict:     {http.StatusConflict, "CONFLICT"},
	KindInvalid:      {http.StatusBadRequest, "BAD_REQUEST"},
	KindUnavailable:  {http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
}

// Status HTTP status for the kind
func (k Kind) Status() int {
	if info, ok := kindTable[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Code machine readable error code
func (k Kind) Code() string {
	if info, ok := kindTable[k]; ok {
		return info.code
	}
	return "INTERNAL_SERVER_ERROR"
}

// AppError 분류된 비즈니스 에러
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors of the same kind and message
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// NewError creates an AppError without a cause
func NewError(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap creates an AppError around a cause
func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, KindInternal for unclassified errors
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Business logic errors
var (
	ErrUnauthorized = NewError(KindUnauthorized, "authentication required")

	ErrUserNotFound         = NewError(KindNotFound, "user not found")
	ErrContentNotFound      = NewError(KindNotFound, "content not found")
	ErrApprovalNotFound     = NewError(KindNotFound, "approval not found")
	ErrNotificationNotFound = NewError(KindNotFound, "notification not found")

	ErrApprovalExists    = NewError(KindConflict, "content already has an approval")
	ErrInvalidTransition = NewError(KindConflict, "transition not allowed from current state")
	ErrVersionConflict   = NewError(KindConflict, "approval was modified concurrently")
	ErrResubmitDisabled  = NewError(KindConflict, "resubmission is disabled")
	ErrDuplicateSlug     = NewError(KindConflict, "slug already used in organization")

	ErrInvalidStatusFilter = NewError(KindInvalid, "invalid status filter")

	ErrStorageDisabled = NewError(KindUnavailable, "archive storage is not configured")
)
