package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/janhq/replicate-mcp/internal/infrastructure/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
	Long:  `Inspect the environment-based configuration the server would start with.`,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration from the environment",
	Long:  `Load configuration exactly as the server does and print the effective values. The API token is masked.`,
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configCheckCmd)
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	printConfig(cmd.OutOrStdout(), cfg)
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	rows := []struct {
		key   string
		value string
	}{
		{"transport", cfg.Transport},
		{"http_port", cfg.HTTPPort},
		{"base_url", cfg.BaseURL},
		{"api_token", maskToken(cfg.APIToken)},
		{"http_timeout", cfg.HTTPTimeoutDuration().String()},
		{"list_limit", fmt.Sprint(cfg.ListLimit)},
		{"circuit_breaker", fmt.Sprintf("enabled=%t failures=%d timeout=%s", cfg.CBEnabled, cfg.CBFailureThreshold, cfg.CBTimeoutDuration())},
		{"templates_file", orNone(cfg.TemplatesFile)},
		{"tracing", fmt.Sprintf("enabled=%t endpoint=%s", cfg.OTELEnabled, orNone(cfg.OTLPEndpoint))},
		{"auth", fmt.Sprintf("enabled=%t issuer=%s", cfg.AuthEnabled, orNone(cfg.AuthIssuer))},
		{"log", cfg.LogLevel + "/" + cfg.LogFormat},
	}
	fmt.Fprintln(w, "Configuration is valid")
	for _, r := range rows {
		fmt.Fprintf(w, "  %-16s %s\n", r.key, r.value)
	}
}

// maskToken keeps only the last four characters.
func maskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
