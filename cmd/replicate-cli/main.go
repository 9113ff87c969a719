package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/janhq/replicate-mcp/internal/interfaces/httpserver/routes/mcp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "replicate-cli",
	Short: "Operator CLI for the Replicate MCP server",
	Long: `replicate-cli inspects configuration and parameter templates and can
call the server's tools in-process, without an MCP host.

Examples:
  # Check the environment before starting the server
  replicate-cli config check

  # Browse templates, including those from a YAML file
  replicate-cli templates list --family sd
  replicate-cli templates show controlnet/canny --file configs/templates.yml

  # Run a tool against the live API
  replicate-cli tools call get_model_details --args '{"model":"stability-ai/sdxl"}'

  # Probe a running HTTP deployment
  replicate-cli health --url http://localhost:8093`,
	Version:       mcp.ServerVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(healthCmd)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging on stderr")
}
