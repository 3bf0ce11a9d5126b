// Command luxrent serves the car availability and quoting API and offers a
// one-shot quote calculator.
//
//	./luxrent serve [--http-addr :8080] [--storage memory|mongo]
//	./luxrent quote --start 2025-06-01 --end 2025-06-10 --tier weekly --weekly 1500
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"luxrent/internal/infra/config"
)

var settings = config.New()

var rootCmd = &cobra.Command{
	Use:   "luxrent",
	Short: "Luxury car rental availability and pricing service",
	Long: `luxrent exposes per-car availability calendars, price quotes for
daily, weekly and monthly tiers, and booking requests that block dates
once accepted.
Configuration is read from the environment (APP_ENV, HTTP_ADDR,
STORAGE_MODE, MONGO_URI, KAFKA_BROKERS, ...) and may be overridden by flags.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("app-env", "", "runtime environment (dev, test, prod)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	mustBind(settings.BindPFlag("app_env", flags.Lookup("app-env")))
	mustBind(settings.BindPFlag("log_level", flags.Lookup("log-level")))

	rootCmd.AddCommand(serveCmd, quoteCmd)
}

func mustBind(err error) {
	if err != nil {
		panic(err)
	}
}
