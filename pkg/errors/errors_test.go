package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(ErrCodeInvalidFormat, cause, "parse companies.csv")

	if err.Code != ErrCodeInvalidFormat {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidFormat)
	}
	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	expected := "INVALID_FORMAT: parse companies.csv: unexpected EOF"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeMappingIncomplete, "x"), ErrCodeMappingIncomplete, true},
		{"different code", New(ErrCodeMissingField, "x"), ErrCodeMappingIncomplete, false},
		{"plain error", errors.New("plain"), ErrCodeInternal, false},
		{"nil error", nil, ErrCodeInternal, false},
		{"wrapped by fmt", fmtWrap(New(ErrCodeExportFailed, "x")), ErrCodeExportFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeNoValidCompanies, "none")); got != ErrCodeNoValidCompanies {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeNoValidCompanies)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeMissingField, "Row 3: missing category")); got != "Row 3: missing category" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("boom")); got != "boom" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestListMessages(t *testing.T) {
	l := List{New(ErrCodeMissingField, "a"), New(ErrCodeMissingField, "b")}
	got := l.Messages()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Messages() = %v, want [a b]", got)
	}
}

type wrapped struct{ err error }

func (w wrapped) Error() string { return "context: " + w.err.Error() }
func (w wrapped) Unwrap() error { return w.err }

func fmtWrap(err error) error { return wrapped{err} }

func TestCodeMatchesChain(t *testing.T) {
	inner := New(ErrCodeMissingField, "Row 2: missing category")
	outer := Wrap(ErrCodeInvalidInput, inner, "import companies.csv")

	for _, code := range []Code{ErrCodeInvalidInput, ErrCodeMissingField} {
		if !errors.Is(outer, code) {
			t.Errorf("errors.Is(outer, %s) = false, want true", code)
		}
	}
	if errors.Is(outer, ErrCodeExportFailed) {
		t.Error("matched a code that is not in the chain")
	}
	if got := GetCode(outer); got != ErrCodeInvalidInput {
		t.Errorf("GetCode() = %q, want the outermost code", got)
	}
}

func TestListErr(t *testing.T) {
	if (List{}).Err() != nil {
		t.Error("empty list should give nil")
	}
	err := List{New(ErrCodeMissingField, "Row 2"), New(ErrCodeMissingField, "Row 5")}.Err()
	if !Is(err, ErrCodeMissingField) {
		t.Errorf("joined list lost its code: %v", err)
	}
	if got := err.Error(); got != "MISSING_FIELD: Row 2\nMISSING_FIELD: Row 5" {
		t.Errorf("Error() = %q", got)
	}
}
