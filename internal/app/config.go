// Package app exposes Run, the entrypoint that reads the workspace
// environment, starts the hosting server for registered functions, and
// returns the connection info SQL clients need to reach them
package app

import (
	"strconv"
	"strings"

	"udfhost/internal/platform/config"
	perr "udfhost/internal/platform/errors"
	"udfhost/internal/platform/net/http/bind"
	pstrings "udfhost/internal/platform/strings"
)

// EnvPrefix namespaces every workspace variable this package reads
const EnvPrefix = "UDFHOST_"

// WorkloadType describes what kind of workspace the process runs in
type WorkloadType string

// Workload types the platform launches
const (
	WorkloadInteractiveNotebook WorkloadType = "InteractiveNotebook"
	WorkloadBatchJob            WorkloadType = "BatchJob"
	WorkloadScheduledJob        WorkloadType = "ScheduledJob"
)

// Interactive reports whether the workload re-registers functions on each run
func (w WorkloadType) Interactive() bool { return w == WorkloadInteractiveNotebook }

// Config is the workspace environment contract read by Run
type Config struct {
	ListenPort int    `validate:"gte=1,lte=65535"`
	BaseURL    string `validate:"required,url"`
	BasePath   string
	ServerID   string       `validate:"required"`
	AppToken   string       `validate:"required"`
	UserToken  string       `validate:"required"`
	Workload   WorkloadType `validate:"required,oneof=InteractiveNotebook BatchJob ScheduledJob"`

	// GatewayEndpoint empty means the gateway is not enabled
	GatewayEndpoint string

	// DatabaseURL is required only for interactive registration
	DatabaseURL string

	// AuditURL enables the clickhouse invocation audit sink when set
	AuditURL string

	LocalDev bool
}

// requiredKeys are the env vars Run cannot start without
var requiredKeys = []string{
	"APP_LISTEN_PORT",
	"APP_BASE_URL",
	"SERVER_ID",
	"APP_TOKEN",
	"USER_TOKEN",
	"WORKLOAD_TYPE",
}

// ConfigFromEnv reads and validates the UDFHOST_* environment
// it returns errors rather than panicking so notebook callers see a
// message instead of a dead kernel
func ConfigFromEnv() (Config, error) {
	c := config.New().Prefix(EnvPrefix)

	if missing := c.Missing(requiredKeys...); len(missing) > 0 {
		return Config{}, perr.MissingEnvf(
			"Missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg := Config{
		ListenPort:      c.MayInt("APP_LISTEN_PORT", 0),
		BaseURL:         c.MayString("APP_BASE_URL", ""),
		BasePath:        pstrings.NormalizePrefix(c.MayString("APP_BASE_PATH", "")),
		ServerID:        c.MayString("SERVER_ID", ""),
		AppToken:        c.MayString("APP_TOKEN", ""),
		UserToken:       c.MayString("USER_TOKEN", ""),
		Workload:        WorkloadType(c.MayString("WORKLOAD_TYPE", "")),
		GatewayEndpoint: c.MayString("GATEWAY_ENDPOINT", ""),
		DatabaseURL:     c.MayString("DATABASE_URL", ""),
		AuditURL:        c.MayString("AUDIT_URL", ""),
		LocalDev:        c.MayBool("LOCAL_DEV", false),
	}

	if err := bind.Struct(cfg); err != nil {
		return Config{}, perr.Wrap(err, perr.ErrorCodeValidation, "invalid configuration")
	}
	return cfg, nil
}

// Addr is the listen address for the hosting server
func (c Config) Addr() string { return ":" + strconv.Itoa(c.ListenPort) }

// ConnectionURL is the externally reachable base URL for this server's
// functions, routed through the gateway
func (c Config) ConnectionURL() string {
	base := strings.TrimRight(c.GatewayEndpoint, "/")
	return base + "/udfs/" + c.ServerID + c.BasePath
}
