package middleware

import (
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	perr "udfhost/internal/platform/errors"
)

func TestParseBearer(t *testing.T) {
	mk := func(h string) *stdhttp.Request {
		r := httptest.NewRequest(stdhttp.MethodGet, "/", nil)
		if h != "" {
			r.Header.Set("Authorization", h)
		}
		return r
	}

	if tok, err := ParseBearer(mk("Bearer abc123")); err != nil || tok != "abc123" {
		t.Fatalf("ParseBearer = %q/%v", tok, err)
	}
	// scheme is case insensitive
	if tok, err := ParseBearer(mk("bearer xyz")); err != nil || tok != "xyz" {
		t.Fatalf("lowercase scheme = %q/%v", tok, err)
	}

	for _, h := range []string{"", "Bearer", "Bearer   ", "Basic abc"} {
		if _, err := ParseBearer(mk(h)); err == nil {
			t.Fatalf("header %q: want error", h)
		}
	}
}

func TestBearerMiddleware(t *testing.T) {
	check := func(tok string) error {
		if tok == "good" {
			return nil
		}
		return perr.Unauthorizedf("nope")
	}
	var reached bool
	next := stdhttp.HandlerFunc(func(stdhttp.ResponseWriter, *stdhttp.Request) { reached = true })
	h := Bearer(check)(next)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodGet, "/", nil)
	h.ServeHTTP(rec, req)
	if rec.Code != stdhttp.StatusUnauthorized || reached {
		t.Fatalf("no token: code=%d reached=%v", rec.Code, reached)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(stdhttp.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	h.ServeHTTP(rec, req)
	if rec.Code != stdhttp.StatusUnauthorized || reached {
		t.Fatalf("bad token: code=%d reached=%v", rec.Code, reached)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(stdhttp.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(rec, req)
	if rec.Code != stdhttp.StatusOK || !reached {
		t.Fatalf("good token: code=%d reached=%v", rec.Code, reached)
	}
}

func TestBearerNilCheckDisablesGuard(t *testing.T) {
	var reached bool
	next := stdhttp.HandlerFunc(func(stdhttp.ResponseWriter, *stdhttp.Request) { reached = true })
	h := Bearer(nil)(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/", nil))
	if !reached {
		t.Fatal("nil check must pass requests through")
	}
}
