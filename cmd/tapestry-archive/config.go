package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"tapestry-archive/pkg/config"
	"tapestry-archive/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tapestry-archive configuration files.

Configuration is loaded from, highest priority first:
  - command line flags
  - environment variables (TAPESTRY_*), also read from .env
  - the configuration file
  - default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with every option.

The file is created as tapestry-archive.yaml in the current folder unless
another path is given with --config.`,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Show the configuration after merging every source. The cookie is masked.`,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd, showCmd, validateCmd)
}

const exampleConfig = `# tapestry-archive configuration
#
# Every value can also be set with an environment variable, for example
# TAPESTRY_SCHOOL or TAPESTRY_COOKIE_VALUE.

tapestry:
  # School slug from the journal URL: https://tapestryjournal.com/s/<school>/
  school: ""

  # Value of the tapestry_session cookie. Prefer 'tapestry-archive auth login'
  # over keeping it here.
  cookie_value: ""

  # Child's name, used in the journal heading
  name: ""

  base_url: "https://tapestryjournal.com"

rate_limit:
  # Requests are paced, never retried
  requests_per_minute: 60
  burst_size: 5

output:
  base_directory: "images"

  # Write observations-info.md next to the files
  write_journal: true

download:
  download_timeout: 60s
  skip_videos: false
  skip_images: false

notifications:
  enabled: true
  # terminal, desktop or none
  notification_type: "terminal"

logging:
  # debug, info, warn, error or disabled
  level: "info"
  # Optional JSON log file
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = "tapestry-archive.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	// may later hold the cookie
	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Fprintln(cmd.OutOrStdout(), "\nNext steps:")
	fmt.Fprintln(cmd.OutOrStdout(), "1. Set your school, or store a cookie with 'tapestry-archive auth login'")
	fmt.Fprintln(cmd.OutOrStdout(), "2. Check it with 'tapestry-archive config validate'")
	fmt.Fprintln(cmd.OutOrStdout(), "3. Start with 'tapestry-archive fetch'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	display := *cfg
	if display.Tapestry.CookieValue != "" {
		display.Tapestry.CookieValue = maskSecret(display.Tapestry.CookieValue)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none found)"
	}
	fmt.Fprintf(out, "\n# configuration file: %s\n", source)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var problems []error
	if cfg.Output.BaseDirectory != "" {
		if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create output directory: %w", err))
		}
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}

	if !cfg.HasCredentials() {
		ui.PrintWarning("No cookie configured, 'fetch' will use stored accounts")
	}

	ui.PrintSuccess("Configuration is valid")
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Fprintf(out, "  Pacing: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
