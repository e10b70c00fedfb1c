package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "session required"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "too many requests", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
		{code: CodePaymentFailed, status: http.StatusBadRequest, publicMsg: "payment processing failed", retryable: true},
		{code: CodeInventoryUnavailable, status: http.StatusConflict, publicMsg: "inventory check failed", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeInventoryUnavailable, "gone"))
	if got := As(err); got == nil || got.Code() != CodeInventoryUnavailable {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	if got := CodeOf(stdErrors.New("plain")); got != CodeInternal {
		t.Fatalf("expected internal code, got %s", got)
	}
	if got := CodeOf(New(CodePaymentFailed, "declined")); got != CodePaymentFailed {
		t.Fatalf("expected payment code, got %s", got)
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := fmt.Errorf("save session: %w", Wrap(CodeDependency, stdErrors.New("conn refused"), "redis down"))
	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", dump.Code)
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d: %v", len(dump.Chain), dump.Chain)
	}
}

func TestDumpClassifiesSentinels(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("place order: %w", context.Canceled), "canceled"},
		{Wrap(CodeDependency, context.DeadlineExceeded, "catalog timeout"), "deadline"},
		{fmt.Errorf("find order: %w", gorm.ErrRecordNotFound), "record_not_found"},
		{fmt.Errorf("load state: %w", redis.Nil), "redis_nil"},
		{stdErrors.New("plain"), ""},
	}
	for _, tc := range tests {
		if got := Dump(tc.err).Cause; got != tc.want {
			t.Fatalf("cause of %v: want %q, got %q", tc.err, tc.want, got)
		}
	}
}

func TestDumpFieldsOmitEmptyValues(t *testing.T) {
	fields := Dump(New(CodeStateConflict, "consent required")).Fields()
	if fields["error_code"] != "STATE_CONFLICT" {
		t.Fatalf("unexpected error_code %v", fields["error_code"])
	}
	for _, key := range []string{"pg_code", "error_cause", "error_chain"} {
		if _, ok := fields[key]; ok {
			t.Fatalf("expected %s to be omitted", key)
		}
	}
}
