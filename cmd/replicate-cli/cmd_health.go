package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe a running HTTP deployment",
	Long:  `Query /healthz, /readyz and /health/auth of a server started with REPLICATE_MCP_TRANSPORT=http.`,
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().String("url", "http://localhost:8093", "Base URL of the server")
	healthCmd.Flags().Duration("timeout", 5*time.Second, "Per-request timeout")
}

func runHealth(cmd *cobra.Command, _ []string) error {
	baseURL, _ := cmd.Flags().GetString("url")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout)

	failed := 0
	for _, path := range []string{"/healthz", "/readyz", "/health/auth"} {
		resp, err := client.R().SetContext(cmd.Context()).Get(path)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-14s unreachable: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %-14s %d %s\n", path, resp.StatusCode(), strings.TrimSpace(resp.String()))
		if resp.IsError() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of 3 probes failed", failed)
	}
	return nil
}
