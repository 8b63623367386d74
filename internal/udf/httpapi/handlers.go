// Package httpapi provides the http transport for hosted functions
package httpapi

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"time"

	"udfhost/internal/platform/logger"
	pnet "udfhost/internal/platform/net"
	phttp "udfhost/internal/platform/net/http"
	"udfhost/internal/platform/net/middleware"
	"udfhost/internal/udf"

	"github.com/go-chi/chi/v5"
)

// InvokeInput is the request body for POST /invoke/{name}
type InvokeInput struct {
	Args []json.RawMessage `json:"args"`
}

// InvokeOutput is the data payload for a successful invocation
type InvokeOutput struct {
	Function string  `json:"function"`
	Result   any     `json:"result"`
	TookMS   float64 `json:"took_ms"`
}

// ListOutput is the data payload for GET /functions
type ListOutput struct {
	Functions []udf.Signature `json:"functions"`
}

// ObserveFunc receives one record per invocation attempt
// err is nil when the function returned normally
type ObserveFunc func(ctx context.Context, name string, took time.Duration, err error)

// Options configures the mounted API
type Options struct {
	// CheckToken guards invoke and list when set, nil disables auth
	CheckToken middleware.TokenFunc

	// Observe is called after every invocation when set
	Observe ObserveFunc
}

// Register mounts the hosting endpoints on the given router
func Register(r phttp.Router, reg *udf.Registry, opts Options) {
	h := &handlers{reg: reg, observe: opts.Observe}

	// liveness stays outside the auth guard
	phttp.GetJSON(r, "/healthz", h.health)

	r.Group(func(g phttp.Router) {
		if opts.CheckToken != nil {
			g.Use(middleware.Bearer(opts.CheckToken))
		}
		phttp.GetJSON(g, "/functions", h.list)
		phttp.PostJSON[InvokeInput](g, "/invoke/{name}", h.invoke)
	})
}

type handlers struct {
	reg     *udf.Registry
	observe ObserveFunc
}

func (h *handlers) health(_ *stdhttp.Request) (any, error) {
	return map[string]string{"status": "ok"}, nil
}

func (h *handlers) list(_ *stdhttp.Request) (any, error) {
	return ListOutput{Functions: h.reg.Info()}, nil
}

func (h *handlers) invoke(r *stdhttp.Request, in InvokeInput) (any, error) {
	name := udf.NormalizeName(chi.URLParam(r, "name"))
	ctx := pnet.WithFunction(r.Context(), name)

	start := time.Now()
	out, err := h.reg.Call(ctx, name, in.Args)
	took := time.Since(start)

	if h.observe != nil {
		h.observe(ctx, name, took, err)
	}
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("invocation failed")
		return nil, err
	}
	return InvokeOutput{
		Function: name,
		Result:   out,
		TookMS:   float64(took.Microseconds()) / 1000.0,
	}, nil
}
