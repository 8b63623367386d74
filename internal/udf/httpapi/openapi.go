package httpapi

import (
	_ "embed"
	stdhttp "net/http"

	phttp "udfhost/internal/platform/net/http"
)

//go:embed openapi.json
var openapiDoc []byte

// MountDocs serves the hand-maintained OpenAPI document plus the swagger UI
// no-op when enabled is false
func MountDocs(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/openapi.json", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(openapiDoc)
	})
	phttp.MountSwagger(r, "/openapi.json", true)
}
