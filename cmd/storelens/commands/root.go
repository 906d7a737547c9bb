// Package commands implements the CLI commands for storelens.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/storelens/storelens/internal/config"
	"github.com/storelens/storelens/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "storelens",
	Short: "Brand intelligence for e-commerce storefronts",
	Long: `Storelens scrapes a brand's storefront, extracts its public facts
(contact details, policies, FAQs, social handles, hero products), walks
the product catalog on Shopify stores, and optionally compares the brand
against competitors.

Examples:
  # Analyze a single brand and print the report
  storelens analyze allbirds.com

  # Include a competitor comparison, written to a file as YAML
  storelens analyze allbirds.com --competitors --format yaml -o report.yaml

  # Run the HTTP API backed by Postgres
  storelens serve --database-url "postgres://localhost/storelens?sslmode=disable"`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.storelens.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("log-json", false, "emit logs as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".storelens")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("STORELENS")
	viper.AutomaticEnv()

	// Also check common API key env vars
	_ = viper.BindEnv("api_key", "OPENAI_API_KEY", "ANTHROPIC_API_KEY")
	_ = viper.BindEnv("database_url", "DATABASE_URL")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
