package app

import (
	"strings"
	"testing"

	"udfhost/internal/platform/testkit"
)

func TestConfigFromEnvComplete(t *testing.T) {
	setWorkspaceEnv(t)

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.ListenPort != 8080 {
		t.Fatalf("ListenPort = %d, want 8080", cfg.ListenPort)
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("Addr = %q, want :8080", cfg.Addr())
	}
	if cfg.BasePath != "/api" {
		t.Fatalf("BasePath = %q, want /api", cfg.BasePath)
	}
	if !cfg.Workload.Interactive() {
		t.Fatalf("Workload = %q, want interactive", cfg.Workload)
	}
	if cfg.LocalDev {
		t.Fatal("LocalDev = true, want false")
	}
}

func TestConfigFromEnvMissingNamesKeys(t *testing.T) {
	clearWorkspaceEnv(t)
	t.Setenv("UDFHOST_APP_BASE_URL", "http://localhost:8080")

	_, err := ConfigFromEnv()
	if err == nil {
		t.Fatal("expected error")
	}
	testkit.MustContain(t, err.Error(), "Missing")
	testkit.MustContain(t, err.Error(), "UDFHOST_SERVER_ID")
	// present keys must not be named
	if got := err.Error(); strings.Contains(got, "UDFHOST_APP_BASE_URL") {
		t.Fatalf("error names a present key: %s", got)
	}
}

func TestConfigFromEnvRejectsBadWorkload(t *testing.T) {
	setWorkspaceEnv(t)
	t.Setenv("UDFHOST_WORKLOAD_TYPE", "Cron")

	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected validation error for unknown workload type")
	}
}

func TestConfigFromEnvRejectsBadPort(t *testing.T) {
	setWorkspaceEnv(t)
	t.Setenv("UDFHOST_APP_LISTEN_PORT", "99999")

	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected validation error for out-of-range port")
	}
}

func TestConnectionURL(t *testing.T) {
	cfg := Config{
		GatewayEndpoint: "http://gateway.test.com/",
		ServerID:        "srv-1",
		BasePath:        "/api",
	}
	want := "http://gateway.test.com/udfs/srv-1/api"
	if got := cfg.ConnectionURL(); got != want {
		t.Fatalf("ConnectionURL = %q, want %q", got, want)
	}
}

func TestConfigBasePathDefaultsToRoot(t *testing.T) {
	setWorkspaceEnv(t)
	t.Setenv("UDFHOST_APP_BASE_PATH", "")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.BasePath != "/" {
		t.Fatalf("BasePath = %q, want /", cfg.BasePath)
	}
}
