package middleware

import (
	stdjson "encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
)

func TestRecoverJSON(t *testing.T) {
	h := RecoverJSON(stdhttp.HandlerFunc(func(stdhttp.ResponseWriter, *stdhttp.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/", nil))

	if rec.Code != stdhttp.StatusInternalServerError {
		t.Fatalf("code = %d", rec.Code)
	}
	var body panicWire
	if err := stdjson.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.StatusCode != stdhttp.StatusInternalServerError || body.Status == "" {
		t.Fatalf("body = %+v", body)
	}
}

func TestRecoverJSONPassthrough(t *testing.T) {
	h := RecoverJSON(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/", nil))
	if rec.Code != stdhttp.StatusTeapot {
		t.Fatalf("code = %d", rec.Code)
	}
}
