package app

import (
	"context"
	stdhttp "net/http"
	"sync"

	"udfhost/internal/app/portkill"
	perr "udfhost/internal/platform/errors"
	"udfhost/internal/platform/logger"
	phttp "udfhost/internal/platform/net/http"
	"udfhost/internal/udf"
)

// ConnectionInfo is what Run hands back to the caller: the gateway URL
// SQL clients reach the functions through, the token to present, and the
// hosted functions keyed by name
type ConnectionInfo struct {
	URL       string                   `json:"url"`
	Token     string                   `json:"token"`
	Functions map[string]udf.Signature `json:"functions"`
}

// hostServer is the server surface Run depends on
type hostServer interface {
	Start(ctx context.Context) error
	WaitForStartup(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Addr() string
}

// seams, swapped in tests
var (
	configFromEnv     = ConfigFromEnv
	killProcessByPort = portkill.Kill
	newServer         = func(addr string, h stdhttp.Handler) hostServer {
		s := phttp.NewServer(addr)
		s.SetHandler(h)
		return s
	}
)

// running is the in-process server from the previous Run, if any
// notebooks call Run repeatedly in one process, so Run replaces it
var (
	runningMu sync.Mutex
	running   *runningServer
)

type runningServer struct {
	srv hostServer
	app hostApplication
}

// Run starts the hosting server for every function registered so far and
// returns its connection info
//
// the sequence: parse env, fail fast when the gateway is off, replace any
// previous in-process server, optionally free the port, start and await the
// listener, then register the functions with the database when running
// interactively
func Run(ctx context.Context, opts ...Option) (*ConnectionInfo, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.logLevel != "" {
		if !logger.ValidLevel(o.logLevel) {
			return nil, perr.InvalidArgf("invalid log level %q", o.logLevel)
		}
		logger.SetLevel(o.logLevel)
	}
	log := logger.Named("app")

	cfg, err := configFromEnv()
	if err != nil {
		return nil, err
	}

	if cfg.GatewayEndpoint == "" {
		return nil, perr.GatewayDisabledf("UDFs are not available if the gateway is not enabled")
	}

	// a previous run's server must go before the port is reused
	if err := Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("shutting down previous server failed")
	}

	if o.killExisting {
		if _, err := killProcessByPort(cfg.ListenPort, *log); err != nil {
			// best effort, binding will fail loudly if the port is still held
			log.Warn().Err(err).Int("port", cfg.ListenPort).Msg("freeing port failed")
		}
	}

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return nil, err
	}

	srv := newServer(cfg.Addr(), app.Handler())
	if err := srv.Start(ctx); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	if err := srv.WaitForStartup(ctx); err != nil {
		_ = srv.Shutdown(ctx)
		_ = app.Close(ctx)
		return nil, err
	}

	if cfg.Workload.Interactive() {
		if err := app.RegisterFunctions(ctx, true); err != nil {
			_ = srv.Shutdown(ctx)
			_ = app.Close(ctx)
			return nil, err
		}
	}

	runningMu.Lock()
	running = &runningServer{srv: srv, app: app}
	runningMu.Unlock()

	info := &ConnectionInfo{
		URL:       cfg.ConnectionURL(),
		Token:     cfg.UserToken,
		Functions: app.Info(),
	}
	log.Info().Str("addr", srv.Addr()).Str("url", info.URL).
		Int("functions", len(info.Functions)).Msg("hosting server up")
	return info, nil
}

// Shutdown stops the server recorded by the previous Run, if any
func Shutdown(ctx context.Context) error {
	runningMu.Lock()
	prev := running
	running = nil
	runningMu.Unlock()

	if prev == nil {
		return nil
	}
	err := prev.srv.Shutdown(ctx)
	if cerr := prev.app.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
