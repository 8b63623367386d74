package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"udfhost/internal/app"
	"udfhost/internal/platform/logger"
	"udfhost/internal/udf"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		logLevel     string
		killExisting bool
		demo         bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the hosting server and block until signalled",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// local development reads .env so a notebook-like env is one file away
			if strings.EqualFold(os.Getenv(app.EnvPrefix+"LOCAL_DEV"), "true") {
				if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
					return err
				}
			}

			if demo {
				registerDemoFunctions()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			info, err := app.Run(ctx,
				app.WithLogLevel(logLevel),
				app.WithKillExisting(killExisting),
			)
			if err != nil {
				return err
			}
			log := logger.Named("serve")
			for name := range info.Functions {
				log.Info().Str("function", name).Msg("hosting")
			}

			<-ctx.Done()

			shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return app.Shutdown(shCtx)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "info", "process log level (debug|info|warn|error|critical)")
	cmd.Flags().BoolVar(&killExisting, "kill-existing", false, "terminate whatever process holds the listen port first")
	cmd.Flags().BoolVar(&demo, "demo", false, "register the built-in example functions")
	return cmd
}

// registerDemoFunctions populates the default registry with a few
// callable examples for smoke testing a workspace
func registerDemoFunctions() {
	udf.MustRegister("echo", func(s string) string { return s })
	udf.MustRegister("add", func(a, b int64) int64 { return a + b })
	udf.MustRegister("to_upper", func(s string) string { return strings.ToUpper(s) })
	udf.MustRegister("parse_int", func(s string) (int64, error) {
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	})
}
