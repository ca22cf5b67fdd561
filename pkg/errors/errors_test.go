package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrCorpusAccess, "reading %s", "data/cacm")
	if !errors.Is(err, ErrCorpusAccess) {
		t.Fatalf("expected AppError to unwrap to ErrCorpusAccess")
	}
	want := "corpus not accessible: reading data/cacm"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"corpus", New(ErrCorpusAccess, "x"), ExitCorpus},
		{"wrapped empty corpus", fmt.Errorf("building: %w", ErrZeroDocumentCollection), ExitEmptyCorpus},
		{"duplicate", fmt.Errorf("adding: %w", ErrDuplicateDocument), ExitIndexCorrupt},
		{"scheme", New(ErrInvalidScheme, "xyz"), ExitInvalidScheme},
		{"usage", New(ErrInvalidInput, "limit"), ExitUsage},
		{"unknown", errors.New("boom"), ExitInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
