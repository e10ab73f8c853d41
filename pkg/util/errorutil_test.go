package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestStatusBinding(t *testing.T) {
	cases := map[ErrorKind]int{
		KindAuthenticationRequired: http.StatusUnauthorized,
		KindInvalidCredentials:     http.StatusUnauthorized,
		KindTokenExpired:           http.StatusUnauthorized,
		KindTokenInvalid:           http.StatusUnauthorized,
		KindPermissionDenied:       http.StatusForbidden,
		KindNotFound:               http.StatusNotFound,
		KindRateLimitExceeded:      http.StatusTooManyRequests,
		KindValidationError:        http.StatusUnprocessableEntity,
		KindInternalError:          http.StatusInternalServerError,
		KindServiceUnavailable:     http.StatusServiceUnavailable,
		KindExternalServiceError:   http.StatusBadGateway,
	}
	if len(cases) != len(statusByKind) {
		t.Fatalf("test covers %d kinds, table has %d", len(cases), len(statusByKind))
	}
	for kind, want := range cases {
		if got := (&APIError{Kind: kind}).HTTPStatus(); got != want {
			t.Fatalf("%s: status = %d, want %d", kind, got, want)
		}
	}
}

func TestUnknownKindMapsToInternalError(t *testing.T) {
	if got := (&APIError{Kind: "made_up"}).HTTPStatus(); got != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", got)
	}
}

func TestToAPIErrorPassthrough(t *testing.T) {
	orig := NewRateLimitExceeded(42)
	converted := ToAPIError(orig)
	if converted.Kind != KindRateLimitExceeded {
		t.Fatalf("kind = %s", converted.Kind)
	}
	if converted.Details["reset_in"] != 42 {
		t.Fatalf("details = %v", converted.Details)
	}
}

func TestToAPIErrorWrapped(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), NewPermissionDenied("nope"))
	if got := ToAPIError(wrapped).Kind; got != KindPermissionDenied {
		t.Fatalf("kind = %s, want permission_denied", got)
	}
}

func TestToAPIErrorCoercion(t *testing.T) {
	converted := ToAPIError(errors.New("boom"))
	if converted.Kind != KindInternalError {
		t.Fatalf("kind = %s, want internal_error", converted.Kind)
	}
	// The client-facing message must not leak the underlying error.
	if converted.Message != "internal server error" {
		t.Fatalf("message = %q", converted.Message)
	}
	if !errors.Is(converted, converted.Err) {
		t.Fatal("wrapped error should be reachable via errors.Is")
	}
}

func TestToAPIErrorNoRows(t *testing.T) {
	if got := ToAPIError(pgx.ErrNoRows).Kind; got != KindNotFound {
		t.Fatalf("kind = %s, want not_found", got)
	}
}

func TestToAPIErrorNil(t *testing.T) {
	if ToAPIError(nil) != nil {
		t.Fatal("nil error should map to nil")
	}
}

func TestErrorString(t *testing.T) {
	plain := &APIError{Kind: KindNotFound, Message: "user not found"}
	if plain.Error() != "user not found" {
		t.Fatalf("Error() = %q", plain.Error())
	}
	withCause := &APIError{Kind: KindInternalError, Message: "internal server error", Err: errors.New("db down")}
	if withCause.Error() != "internal server error: db down" {
		t.Fatalf("Error() = %q", withCause.Error())
	}
}
