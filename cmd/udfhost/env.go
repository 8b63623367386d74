package main

import (
	"fmt"

	"udfhost/internal/app"

	"github.com/spf13/cobra"
)

// envDoc is the environment contract, one line per variable
var envDoc = []struct{ key, doc string }{
	{"APP_LISTEN_PORT", "required; TCP port the hosting server binds"},
	{"APP_BASE_URL", "required; externally visible base URL of this app"},
	{"APP_BASE_PATH", "optional; path prefix the API is mounted under (default /)"},
	{"SERVER_ID", "required; identifier of this server within the workspace"},
	{"APP_TOKEN", "required; bearer token the gateway presents"},
	{"USER_TOKEN", "required; bearer token returned in connection info"},
	{"WORKLOAD_TYPE", "required; InteractiveNotebook | BatchJob | ScheduledJob"},
	{"GATEWAY_ENDPOINT", "gateway base URL; unset means the gateway is not enabled"},
	{"DATABASE_URL", "workspace database DSN for interactive function registration"},
	{"AUDIT_URL", "optional; clickhouse DSN enabling the invocation audit sink"},
	{"LOCAL_DEV", "optional; true loads .env and serves API docs"},
}

func envCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print the environment variables the server reads",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, e := range envDoc {
				fmt.Fprintf(cmd.OutOrStdout(), "%s%-18s %s\n", app.EnvPrefix, e.key, e.doc)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nLOG_LEVEL, LOG_SERVICE, LOG_FORMAT configure logging.\n")
		},
	}
}
