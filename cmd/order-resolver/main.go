// Package main is the entry point for the order-resolver CLI. It exposes the
// batch order resolution engine as a long-running HTTP service (serve) and as
// a one-shot command (resolve).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/orderdocs/order-resolver/pkg/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the order-resolver CLI.
var rootCmd = &cobra.Command{
	Use:   "order-resolver",
	Short: "Resolve business order identifiers to internal record ids",
	Long: `order-resolver resolves large lists of business-facing order identifiers
into the internal numeric record ids required by the document generation
service. Input is normalized, partitioned into batches, fetched from the
paginated upstream search API under a bounded concurrency window, and
reconciled into a single deduplicated id set plus the list of identifiers
that matched nothing.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(logging.Config{
			Level:  logging.LogLevel(viper.GetString("log.level")),
			Pretty: viper.GetBool("log.pretty"),
			Output: os.Stderr,
		})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./order-resolver.yaml or ~/.config/order-resolver/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "human-readable console log output")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("order-resolver")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "order-resolver"))
		}
	}

	viper.SetEnvPrefix("ORDER_RESOLVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setConfigDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
