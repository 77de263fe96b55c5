package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus_MappingTable(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindBadRequest, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := Status(New(tc.kind, "x")); got != tc.want {
			t.Errorf("Status(kind=%d) = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestKindOf_NonAppErrIsInternal(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("KindOf(plain error) = %d, want KindInternal", got)
	}
	if got := Status(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("Status(plain error) = %d, want 500", got)
	}
}

func TestWrap_PreservesCauseAndKind(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindInternal, "failed to proxy chat", cause)

	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should match its cause via errors.Is")
	}
	if !IsKind(err, KindInternal) {
		t.Fatal("wrapped error lost its kind")
	}
	if got := err.Error(); got != "failed to proxy chat: connection refused" {
		t.Fatalf("unexpected Error(): %q", got)
	}
}

func TestWrap_NilCauseYieldsNil(t *testing.T) {
	if err := Wrap(KindInternal, "x", nil); err != nil {
		t.Fatalf("Wrap(nil) = %v, want nil", err)
	}
}

func TestKind_SurvivesFurtherWrapping(t *testing.T) {
	inner := NotFound("no chat history found")
	outer := fmt.Errorf("get history: %w", inner)

	if got := KindOf(outer); got != KindNotFound {
		t.Fatalf("KindOf(wrapped) = %d, want KindNotFound", got)
	}
	if got := MessageOf(outer); got != "no chat history found" {
		t.Fatalf("MessageOf(wrapped) = %q", got)
	}
}

func TestMessageOf_GenericForUnknownErrors(t *testing.T) {
	if got := MessageOf(errors.New("pq: password authentication failed")); got != "internal server error" {
		t.Fatalf("MessageOf leaked internals: %q", got)
	}
}

func TestCode_StableStrings(t *testing.T) {
	if got := Code(Conflict("dup")); got != "conflict" {
		t.Fatalf("Code = %q, want conflict", got)
	}
	if got := Code(errors.New("x")); got != "internal_error" {
		t.Fatalf("Code = %q, want internal_error", got)
	}
}
