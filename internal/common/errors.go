package common

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	// ErrExtraction marks a page that could not be rasterized or recognized.
	ErrExtraction = errors.New("text extraction failed")
	// ErrNoRecords is returned when the text stream holds no record markers.
	ErrNoRecords = errors.New("no records found")
)

// Error codes surfaced to clients.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeNotFound         = "NOT_FOUND"
	CodeNoRecords        = "NO_RECORDS"
	CodeExtractionFailed = "EXTRACTION_FAILED"
	CodeTimeout          = "TIMEOUT"
	CodeInternal         = "INTERNAL_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Classify returns the client-facing code for err.
func Classify(err error) string {
	var ae *AppError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoRecords):
		return CodeNoRecords
	case errors.Is(err, ErrExtraction):
		return CodeExtractionFailed
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return CodeInvalidInput
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.As(err, &ae) && ae.Code != "":
		return ae.Code
	default:
		return CodeInternal
	}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}

// ToGRPCError maps a pipeline error onto a gRPC status.
func ToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch Classify(err) {
	case CodeNoRecords:
		return status.Error(codes.FailedPrecondition, err.Error())
	case CodeExtractionFailed:
		return status.Error(codes.Unavailable, err.Error())
	case CodeInvalidInput:
		return status.Error(codes.InvalidArgument, err.Error())
	case CodeNotFound:
		return status.Error(codes.NotFound, err.Error())
	case CodeTimeout:
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
