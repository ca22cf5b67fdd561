package errors

import (
	"errors"
	"fmt"
)

var (
	ErrCorpusAccess           = errors.New("corpus not accessible")
	ErrMalformedIndexLine     = errors.New("malformed index line")
	ErrEmptyQuery             = errors.New("query has no terms")
	ErrEmptyRelevanceSet      = errors.New("query has no relevant documents")
	ErrZeroDocumentCollection = errors.New("collection has no documents")
	ErrInvalidScheme          = errors.New("invalid weighting scheme")
	ErrDuplicateDocument      = errors.New("duplicate document id")
	ErrInvalidInput           = errors.New("invalid input")
)

// Exit codes returned by the CLI for each fatal error kind.
const (
	ExitOK            = 0
	ExitInternal      = 1
	ExitUsage         = 2
	ExitCorpus        = 3
	ExitEmptyCorpus   = 4
	ExitIndexCorrupt  = 5
	ExitInvalidScheme = 6
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// Is reports whether any error in err's chain matches target. It lets callers
// use this package without also importing the standard errors package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case errors.Is(err, ErrCorpusAccess):
		return ExitCorpus
	case errors.Is(err, ErrZeroDocumentCollection):
		return ExitEmptyCorpus
	case errors.Is(err, ErrMalformedIndexLine), errors.Is(err, ErrDuplicateDocument):
		return ExitIndexCorrupt
	case errors.Is(err, ErrInvalidScheme):
		return ExitInvalidScheme
	case errors.Is(err, ErrInvalidInput):
		return ExitUsage
	default:
		return ExitInternal
	}
}
