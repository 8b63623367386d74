package app

import (
	"context"
	stdhttp "net/http"
	"testing"

	"udfhost/internal/platform/logger"
	"udfhost/internal/platform/testkit"
	"udfhost/internal/udf"
)

// fakeServer records the lifecycle calls Run makes
type fakeServer struct {
	started   bool
	awaited   bool
	shutdowns int
	startErr  error
	awaitErr  error
}

func (f *fakeServer) Start(context.Context) error { f.started = true; return f.startErr }
func (f *fakeServer) WaitForStartup(context.Context) error {
	f.awaited = true
	return f.awaitErr
}
func (f *fakeServer) Shutdown(context.Context) error { f.shutdowns++; return nil }
func (f *fakeServer) Addr() string                   { return "127.0.0.1:8080" }

// fakeApplication records registration and exposes canned info
type fakeApplication struct {
	info        map[string]udf.Signature
	registered  bool
	replaceUsed bool
	registerErr error
	closed      bool
}

func (f *fakeApplication) Handler() stdhttp.Handler { return stdhttp.NewServeMux() }
func (f *fakeApplication) RegisterFunctions(_ context.Context, replace bool) error {
	f.registered = true
	f.replaceUsed = replace
	return f.registerErr
}
func (f *fakeApplication) Info() map[string]udf.Signature { return f.info }
func (f *fakeApplication) Close(context.Context) error    { f.closed = true; return nil }

// setWorkspaceEnv installs a complete interactive workspace environment
func setWorkspaceEnv(t *testing.T) {
	t.Helper()
	t.Setenv("UDFHOST_APP_LISTEN_PORT", "8080")
	t.Setenv("UDFHOST_APP_BASE_URL", "http://localhost:8080")
	t.Setenv("UDFHOST_APP_BASE_PATH", "/api")
	t.Setenv("UDFHOST_SERVER_ID", "test-server-123")
	t.Setenv("UDFHOST_APP_TOKEN", "test-app-token")
	t.Setenv("UDFHOST_USER_TOKEN", "test-user-token")
	t.Setenv("UDFHOST_WORKLOAD_TYPE", "InteractiveNotebook")
	t.Setenv("UDFHOST_GATEWAY_ENDPOINT", "http://gateway.test.com")
	t.Setenv("UDFHOST_LOCAL_DEV", "false")
}

// clearWorkspaceEnv blanks every required key
func clearWorkspaceEnv(t *testing.T) {
	t.Helper()
	for _, k := range requiredKeys {
		t.Setenv(EnvPrefix+k, "")
	}
	t.Setenv("UDFHOST_GATEWAY_ENDPOINT", "")
}

// swapSeams installs fakes for every external effect and returns them
func swapSeams(t *testing.T) (*fakeServer, *fakeApplication, *[]int) {
	t.Helper()
	srv := &fakeServer{}
	app := &fakeApplication{info: map[string]udf.Signature{}}
	killed := &[]int{}

	testkit.Swap(t, &newServer, func(string, stdhttp.Handler) hostServer { return srv })
	testkit.Swap(t, &newApplication, func(context.Context, Config) (hostApplication, error) {
		return app, nil
	})
	testkit.Swap(t, &killProcessByPort, func(port int, _ logger.Logger) (int, error) {
		*killed = append(*killed, port)
		return 0, nil
	})

	t.Cleanup(func() {
		runningMu.Lock()
		running = nil
		runningMu.Unlock()
	})
	return srv, app, killed
}

func TestRunBasicSuccess(t *testing.T) {
	testkit.Serial(t)
	setWorkspaceEnv(t)
	srv, app, killed := swapSeams(t)
	app.info = map[string]udf.Signature{
		"hello": {Name: "hello", Returns: udf.Param{SQLType: "TEXT"}},
	}

	info, err := Run(context.Background(), WithLogLevel("info"), WithKillExisting(true))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	testkit.MustContain(t, info.URL, "/udfs/")
	testkit.MustContain(t, info.URL, "test-server-123")
	if info.Token != "test-user-token" {
		t.Fatalf("Token = %q, want user token", info.Token)
	}
	if _, ok := info.Functions["hello"]; !ok {
		t.Fatalf("Functions = %v, want hello", info.Functions)
	}

	if !srv.started || !srv.awaited {
		t.Fatalf("server started=%v awaited=%v, want both", srv.started, srv.awaited)
	}
	if !app.registered || !app.replaceUsed {
		t.Fatalf("registered=%v replace=%v, want both true", app.registered, app.replaceUsed)
	}
	if len(*killed) != 1 || (*killed)[0] != 8080 {
		t.Fatalf("killed = %v, want [8080]", *killed)
	}
}

func TestRunMissingEnvVars(t *testing.T) {
	testkit.Serial(t)
	clearWorkspaceEnv(t)

	_, err := Run(context.Background())
	if err == nil {
		t.Fatal("expected error for missing environment")
	}
	testkit.MustContain(t, err.Error(), "Missing")
	testkit.MustContain(t, err.Error(), "UDFHOST_APP_LISTEN_PORT")
}

func TestRunGatewayNotEnabled(t *testing.T) {
	testkit.Serial(t)
	setWorkspaceEnv(t)
	t.Setenv("UDFHOST_GATEWAY_ENDPOINT", "")
	swapSeams(t)

	_, err := Run(context.Background())
	if err == nil {
		t.Fatal("expected error when gateway endpoint is unset")
	}
	testkit.MustContain(t, err.Error(), "gateway is not enabled")
}

func TestRunShutsDownExistingServer(t *testing.T) {
	testkit.Serial(t)
	setWorkspaceEnv(t)
	_, _, _ = swapSeams(t)

	existingSrv := &fakeServer{}
	existingApp := &fakeApplication{}
	runningMu.Lock()
	running = &runningServer{srv: existingSrv, app: existingApp}
	runningMu.Unlock()

	if _, err := Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if existingSrv.shutdowns != 1 {
		t.Fatalf("existing server shutdowns = %d, want 1", existingSrv.shutdowns)
	}
	if !existingApp.closed {
		t.Fatal("existing application not closed")
	}
}

func TestRunNonInteractiveSkipsRegistration(t *testing.T) {
	testkit.Serial(t)
	setWorkspaceEnv(t)
	t.Setenv("UDFHOST_WORKLOAD_TYPE", "BatchJob")
	_, app, _ := swapSeams(t)

	if _, err := Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if app.registered {
		t.Fatal("RegisterFunctions called for non-interactive workload")
	}
}

func TestRunKillExistingOffByDefault(t *testing.T) {
	testkit.Serial(t)
	setWorkspaceEnv(t)
	_, _, killed := swapSeams(t)

	if _, err := Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(*killed) != 0 {
		t.Fatalf("killed = %v, want none", *killed)
	}
}

func TestRunLogLevels(t *testing.T) {
	testkit.Serial(t)
	setWorkspaceEnv(t)
	swapSeams(t)

	for _, level := range []string{"debug", "info", "warning", "error", "critical"} {
		if _, err := Run(context.Background(), WithLogLevel(level)); err != nil {
			t.Fatalf("Run(%s): %v", level, err)
		}
	}
	t.Cleanup(func() { logger.SetLevel("info") })

	if _, err := Run(context.Background(), WithLogLevel("loud")); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestRunRegistrationFailureStopsServer(t *testing.T) {
	testkit.Serial(t)
	setWorkspaceEnv(t)
	srv, app, _ := swapSeams(t)
	app.registerErr = contextError("registration refused")

	_, err := Run(context.Background())
	if err == nil {
		t.Fatal("expected registration error to surface")
	}
	if srv.shutdowns != 1 {
		t.Fatalf("server shutdowns = %d, want 1", srv.shutdowns)
	}
	if !app.closed {
		t.Fatal("application not closed after failed registration")
	}
}

func TestRunWithActualUDF(t *testing.T) {
	testkit.Serial(t)
	setWorkspaceEnv(t)

	reg := udf.NewRegistry()
	reg.MustRegister("hello", func() string { return "hello" })
	testkit.Swap(t, &udf.Default, reg)

	srv := &fakeServer{}
	testkit.Swap(t, &newServer, func(string, stdhttp.Handler) hostServer { return srv })
	testkit.Swap(t, &killProcessByPort, func(int, logger.Logger) (int, error) { return 0, nil })
	// real application build, but no DATABASE_URL: run non-interactive so
	// registration is skipped and no store is opened
	t.Setenv("UDFHOST_WORKLOAD_TYPE", "BatchJob")
	t.Cleanup(func() {
		runningMu.Lock()
		running = nil
		runningMu.Unlock()
	})

	info, err := Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	sig, ok := info.Functions["hello"]
	if !ok {
		t.Fatalf("Functions = %v, want hello", info.Functions)
	}
	if sig.Returns.SQLType != "TEXT" {
		t.Fatalf("hello returns %s, want TEXT", sig.Returns.SQLType)
	}
}

func TestShutdownWithoutRunningServer(t *testing.T) {
	testkit.Serial(t)
	runningMu.Lock()
	running = nil
	runningMu.Unlock()

	if err := Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown with no server: %v", err)
	}
}

// contextError is a tiny error type for seam fakes
type contextError string

func (e contextError) Error() string { return string(e) }
