package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "udfhost/internal/platform/errors"
)

type invokePayload struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"min=1,max=10"`
}

func req(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestParseJSONOK(t *testing.T) {
	got, err := ParseJSON[invokePayload](req(`{"name":"echo","count":3}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if got.Name != "echo" || got.Count != 3 {
		t.Fatalf("got = %+v", got)
	}
}

func TestParseJSONEmptyBody(t *testing.T) {
	_, err := ParseJSON[invokePayload](req(""))
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("want JSON error, got %v", err)
	}
}

func TestParseJSONEmptyBodyGetTolerated(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	got, err := ParseJSON[invokePayload](r)
	if err != nil {
		t.Fatalf("GET empty body: %v", err)
	}
	if got.Name != "" {
		t.Fatalf("got = %+v", got)
	}
}

func TestParseJSONMalformed(t *testing.T) {
	_, err := ParseJSON[invokePayload](req(`{"name":`))
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("want JSON error, got %v", err)
	}
}

func TestParseJSONUnknownField(t *testing.T) {
	_, err := ParseJSON[invokePayload](req(`{"name":"echo","count":1,"extra":true}`))
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("want JSON error, got %v", err)
	}
}

func TestParseJSONTrailingData(t *testing.T) {
	_, err := ParseJSON[invokePayload](req(`{"name":"echo","count":1}{"again":true}`))
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("want JSON error, got %v", err)
	}
}

func TestParseJSONValidation(t *testing.T) {
	_, err := ParseJSON[invokePayload](req(`{"name":"echo","count":99}`))
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
	// messages use json tag names and the short translations
	if !strings.Contains(err.Error(), "count must be at most 10") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestJSONMiddlewareAndFromContext(t *testing.T) {
	var got *invokePayload
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = FromContext[invokePayload](r)
	})
	h := JSON[invokePayload]()(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req(`{"name":"echo","count":2}`))
	if got == nil || got.Name != "echo" {
		t.Fatalf("payload = %+v", got)
	}

	rec = httptest.NewRecorder()
	got = nil
	h.ServeHTTP(rec, req(`not json`))
	if rec.Code != http.StatusBadRequest || got != nil {
		t.Fatalf("code = %d payload = %+v", rec.Code, got)
	}
}
