package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// MountSwagger mounts the swagger UI under /docs, pointed at specURL
// (a JSON OpenAPI document the caller serves elsewhere on the same mux)
func MountSwagger(r Router, specURL string, enabled bool) {
	if !enabled {
		return
	}
	h := httpSwagger.Handler(httpSwagger.URL(specURL))
	r.Get("/docs/*", func(w http.ResponseWriter, req *http.Request) {
		h.ServeHTTP(w, req)
	})
}
