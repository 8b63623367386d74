package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "udfhost",
	Short: "udfhost - HTTP hosting server for user defined functions",
	Long: `udfhost starts a web server that exposes registered Go functions over
HTTP and, when running interactively, registers them with the workspace
database so SQL can call them through the gateway.`,
}

func init() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(envCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
