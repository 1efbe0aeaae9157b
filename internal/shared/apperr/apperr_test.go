package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{InvalidErr("bad", nil), http.StatusBadRequest},
		{NotFoundErr("missing"), http.StatusNotFound},
		{UnauthorizedErr("who"), http.StatusUnauthorized},
		{ForbiddenErr("no"), http.StatusForbidden},
		{ConflictErr("dup"), http.StatusConflict},
		{TooManyErr("slow down"), http.StatusTooManyRequests},
		{Wrap(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("db gone")
	err := Wrap(fmt.Errorf("load order: %w", cause))

	if !errors.Is(err, cause) {
		t.Error("cause lost through Wrap")
	}
	if PublicMessage(err) != "Something went wrong." {
		t.Errorf("public message = %q, must not leak internals", PublicMessage(err))
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(NotFoundErr("Order not found.")); got != "Order not found." {
		t.Errorf("got %q", got)
	}
	if got := PublicMessage(errors.New("secret detail")); got != "Something went wrong." {
		t.Errorf("got %q", got)
	}
}
