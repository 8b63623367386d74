package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErr(code string) error {
	return &pgconn.PgError{Code: code, Message: "sqlstate " + code}
}

func TestDBErrorCodeMapping(t *testing.T) {
	cases := []struct {
		code string
		want ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"42723", ErrorCodeDuplicateKey},
		{"42883", ErrorCodeNotFound},
		{"22P02", ErrorCodeInvalidArgument},
		{"42501", ErrorCodeUnauthorized},
		{"57P03", ErrorCodeUnavailable},
		{"40001", ErrorCodeDB},
		{"99999", ErrorCodeDB},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(pgErr(c.code))
		if !ok || got != c.want {
			t.Fatalf("DBErrorCode(%s) = %v/%v, want %v", c.code, got, ok, c.want)
		}
	}

	if _, ok := DBErrorCode(stderrs.New("plain")); ok {
		t.Fatal("plain error must not map")
	}
}

func TestFromPostgres(t *testing.T) {
	err := FromPostgres(pgErr("42723"), "register function add")
	if CodeOf(err) != ErrorCodeDuplicateKey {
		t.Fatalf("code = %v", CodeOf(err))
	}
	if !IsDuplicateFunction(err) {
		t.Fatal("IsDuplicateFunction = false after wrapping")
	}

	if FromPostgres(nil, "x") != nil {
		t.Fatal("nil in, nil out")
	}

	plain := FromPostgres(stderrs.New("conn reset"), "register")
	if CodeOf(plain) != ErrorCodeDB {
		t.Fatalf("plain code = %v, want DB", CodeOf(plain))
	}
}

func TestPgPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Wrap(pgErr("42883"), ErrorCodeNotFound, "drop"))
	if !IsUndefinedFunction(wrapped) {
		t.Fatal("IsUndefinedFunction = false through wrapping")
	}
	if IsDuplicateKey(wrapped) {
		t.Fatal("IsDuplicateKey = true for 42883")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(pgErr("40001")) {
		t.Fatal("serialization failure should retry")
	}
	if !IsRetryable(pgErr("40P01")) {
		t.Fatal("deadlock should retry")
	}
	if IsRetryable(pgErr("23505")) {
		t.Fatal("unique violation must not retry")
	}
	if !IsRetryable(stderrs.New("ERROR: commit unexpectedly resulted in rollback")) {
		t.Fatal("commit rollback text should retry")
	}
	if IsRetryable(context.Canceled) {
		t.Fatal("cancellation must not retry")
	}
	if IsRetryable(nil) {
		t.Fatal("nil must not retry")
	}
}
