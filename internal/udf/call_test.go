package udf

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	perr "udfhost/internal/platform/errors"
	"udfhost/internal/platform/testkit"
)

func raw(ss ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(ss))
	for i, s := range ss {
		out[i] = json.RawMessage(s)
	}
	return out
}

func TestCallInvokes(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("add", func(a, b int64) int64 { return a + b })

	out, err := r.Call(context.Background(), "add", raw("2", "3"))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.(int64) != 5 {
		t.Fatalf("out = %v, want 5", out)
	}
}

func TestCallUnknownFunction(t *testing.T) {
	r := NewRegistry()

	_, err := r.Call(context.Background(), "nope", nil)
	if err == nil {
		t.Fatal("want error")
	}
	if perr.CodeOf(err) != perr.ErrorCodeNotFound {
		t.Fatalf("code = %v, want not found", perr.CodeOf(err))
	}
}

func TestCallArityMismatch(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("one", func(a int64) int64 { return a })

	_, err := r.Call(context.Background(), "one", raw("1", "2"))
	if err == nil {
		t.Fatal("want arity error")
	}
	testkit.MustContain(t, err.Error(), "takes 1 argument")
}

func TestCallBadArgumentJSON(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("one", func(a int64) int64 { return a })

	_, err := r.Call(context.Background(), "one", raw(`"not a number"`))
	if err == nil {
		t.Fatal("want coercion error")
	}
	if perr.CodeOf(err) != perr.ErrorCodeInvalidArgument {
		t.Fatalf("code = %v, want invalid argument", perr.CodeOf(err))
	}
}

func TestCallFunctionError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	r.MustRegister("failing", func() (int64, error) { return 0, boom })

	_, err := r.Call(context.Background(), "failing", nil)
	if err == nil {
		t.Fatal("want function error")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestCallRecoversPanic(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("panics", func() int64 { panic("kaboom") })

	_, err := r.Call(context.Background(), "panics", nil)
	if err == nil {
		t.Fatal("want panic surfaced as error")
	}
	testkit.MustContain(t, err.Error(), "panicked")
}

func TestCallPassesContext(t *testing.T) {
	r := NewRegistry()
	type key struct{}
	var seen any
	r.MustRegister("ctxfn", func(ctx context.Context, n int64) int64 {
		seen = ctx.Value(key{})
		return n
	})

	ctx := context.WithValue(context.Background(), key{}, "threaded")
	if _, err := r.Call(ctx, "ctxfn", raw("7")); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if seen != "threaded" {
		t.Fatalf("ctx value = %v", seen)
	}
}

func TestCallNullableArgs(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("maybe", func(s *string) string {
		if s == nil {
			return "<null>"
		}
		return *s
	})

	out, err := r.Call(context.Background(), "maybe", raw("null"))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.(string) != "<null>" {
		t.Fatalf("out = %v", out)
	}
}
