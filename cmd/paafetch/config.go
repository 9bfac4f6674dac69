package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/internetyev/paafetch/pkg/config"
	"github.com/internetyev/paafetch/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage paafetch configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.paafetch.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration merged from all sources.
Credentials are masked.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.`,
	Run:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".paafetch.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# paafetch configuration file
#
# All options can also be set via environment variables prefixed
# with PAAFETCH_, for example PAAFETCH_API_LOGIN.

# DataForSEO API settings
api:
  # API base URL, only change for testing
  base_url: "https://api.dataforseo.com"

  # API credentials. Prefer 'paafetch auth login' over storing
  # them here in plaintext.
  login: ""
  password: ""

  # SERP language and country
  language_code: "en"
  country_code: "US"

  # Per-request timeout
  request_timeout: 5m

# Per-keyword expansion budgets
expand:
  # How many levels of questions to search.
  # 1 fetches only the root keyword's questions.
  depth: 1

  # Maximum unique questions recorded per keyword
  max_questions: 20

  # Maximum API requests spent per keyword, failures included
  max_requests: 15

# Rate limiting
rate_limit:
  requests_per_minute: 30
  burst_size: 5

# Per-request retry
retry:
  enabled: true
  max_attempts: 3
  base_delay: 1s
  max_delay: 30s

# Output settings
output:
  # csv or json
  format: "csv"
  directory: "."
  overwrite: false

# Logging
logging:
  # debug, info, warn, error
  level: "info"
  # Log file path, empty logs to stderr only
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'paafetch auth login' to store your DataForSEO credentials")
	fmt.Println("2. Run 'paafetch config validate' to check the configuration")
	fmt.Println("3. Start fetching with 'paafetch fetch -k \"your keyword\"'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	displayCfg := *cfg
	displayCfg.API.Password = maskValue(displayCfg.API.Password)

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		ui.PrintError("Configuration file is invalid", err.Error())
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration is valid")
}

func maskValue(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
