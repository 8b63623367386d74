package app

import (
	"context"
	"crypto/subtle"
	"errors"
	stdhttp "net/http"
	"time"

	"udfhost/internal/audit"
	perr "udfhost/internal/platform/errors"
	"udfhost/internal/platform/logger"
	phttp "udfhost/internal/platform/net/http"
	"udfhost/internal/platform/net/middleware"
	"udfhost/internal/platform/store"
	"udfhost/internal/registrar"
	"udfhost/internal/udf"
	"udfhost/internal/udf/httpapi"

	"github.com/go-chi/chi/v5"
)

// hostApplication is the surface Run needs from the hosting application
type hostApplication interface {
	Handler() stdhttp.Handler
	RegisterFunctions(ctx context.Context, replace bool) error
	Info() map[string]udf.Signature
	Close(ctx context.Context) error
}

// functionRegistrar is the registrar surface the application depends on
type functionRegistrar interface {
	Register(ctx context.Context, sigs []udf.Signature, baseURL string, replace bool) error
	Deregister(ctx context.Context, sigs []udf.Signature) error
}

// seams, swapped in tests
var (
	newApplication = func(ctx context.Context, cfg Config) (hostApplication, error) {
		return buildApplication(ctx, cfg)
	}
	newRegistrar = func(db store.TxRunner, log logger.Logger) functionRegistrar {
		return registrar.New(db, log)
	}
)

// application bundles the registry, its http handler, and the optional
// storage-backed sinks for one hosting server
type application struct {
	cfg      Config
	registry *udf.Registry
	handler  stdhttp.Handler
	sink     *audit.Sink
	st       *store.Store
}

func buildApplication(ctx context.Context, cfg Config) (*application, error) {
	a := &application{cfg: cfg, registry: udf.Default}

	if cfg.DatabaseURL != "" || cfg.AuditURL != "" {
		st, err := store.Open(ctx, store.Config{
			AppName: "udfhost",
			PG:      store.PGConfig{Enabled: cfg.DatabaseURL != "", URL: cfg.DatabaseURL},
			CH:      store.CHConfig{Enabled: cfg.AuditURL != "", URL: cfg.AuditURL},
		}, store.WithLogger(*logger.Get()))
		if err != nil {
			return nil, err
		}
		a.st = st
		if st.CH != nil {
			a.sink = audit.NewSink(st.CH, *logger.Get())
		}
	}

	var observe httpapi.ObserveFunc
	if a.sink != nil {
		observe = a.sink.Observe
	}

	m := chi.NewRouter()
	r := phttp.AdaptChi(m)
	r.Use(middleware.Defaults()...)
	r.Use(middleware.RecoverJSON)
	r.Use(middleware.AccessLog(middleware.AccessLogOptions{Slow: time.Second}))
	r.Use(middleware.Heartbeat("/ping"))
	if cfg.LocalDev {
		r.Use(middleware.CORS(middleware.CORSOptions{}))
	}
	r.Route(cfg.BasePath, func(sr phttp.Router) {
		httpapi.Register(sr, a.registry, httpapi.Options{
			CheckToken: tokenCheck(cfg),
			Observe:    observe,
		})
		httpapi.MountDocs(sr, cfg.LocalDev)
		phttp.MountProfiler(sr, "/debug", cfg.LocalDev)
	})
	a.handler = m

	return a, nil
}

// tokenCheck accepts the app token or the user token
func tokenCheck(cfg Config) middleware.TokenFunc {
	return func(token string) error {
		b := []byte(token)
		if subtle.ConstantTimeCompare(b, []byte(cfg.AppToken)) == 1 {
			return nil
		}
		if subtle.ConstantTimeCompare(b, []byte(cfg.UserToken)) == 1 {
			return nil
		}
		return perr.Unauthorizedf("invalid token")
	}
}

func (a *application) Handler() stdhttp.Handler { return a.handler }

// RegisterFunctions publishes the registry to the workspace database
func (a *application) RegisterFunctions(ctx context.Context, replace bool) error {
	if a.st == nil || a.st.PG == nil {
		return perr.MissingEnvf("Missing required environment variables: %sDATABASE_URL", EnvPrefix)
	}
	reg := newRegistrar(a.st.PG, *logger.Get())
	return reg.Register(ctx, a.registry.Info(), a.cfg.ConnectionURL(), replace)
}

// Info returns the registered functions keyed by name
func (a *application) Info() map[string]udf.Signature {
	sigs := a.registry.Info()
	out := make(map[string]udf.Signature, len(sigs))
	for _, s := range sigs {
		out[s.Name] = s
	}
	return out
}

// Close flushes the audit sink and releases storage connections
func (a *application) Close(ctx context.Context) error {
	var errs []error
	if a.sink != nil {
		if err := a.sink.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.st != nil {
		if err := a.st.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
