package db

import (
	"errors"
	"testing"
)

func TestError_WrapsOp(t *testing.T) {
	inner := errors.New("connection reset")
	err := error(&Error{Op: OpGet, Err: inner})

	if err.Error() != "GET: connection reset" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to reach the wrapped error")
	}

	var dbErr *Error
	if !errors.As(err, &dbErr) || dbErr.Op != OpGet {
		t.Errorf("errors.As failed or wrong op: %+v", dbErr)
	}
}
