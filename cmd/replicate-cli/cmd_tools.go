package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	domainreplicate "github.com/janhq/replicate-mcp/internal/domain/replicate"
	"github.com/janhq/replicate-mcp/internal/infrastructure"
	"github.com/janhq/replicate-mcp/internal/infrastructure/logger"
	"github.com/janhq/replicate-mcp/internal/interfaces/httpserver/routes/mcp"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Tool commands",
	Long:  `List the server's tools or call one in-process over an in-memory MCP session.`,
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tools",
	RunE:  runToolsList,
}

var toolsCallCmd = &cobra.Command{
	Use:   "call [tool]",
	Short: "Call a tool",
	Long:  `Call a tool with JSON arguments. Requires REPLICATE_API_TOKEN; the call reaches the live API.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runToolsCall,
}

func init() {
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsCallCmd)

	toolsCallCmd.Flags().String("args", "{}", "Tool arguments as a JSON object")
}

// openSession builds the server in-process and connects a client to it.
func openSession(ctx context.Context, cmd *cobra.Command) (*mcpsdk.ClientSession, func(), error) {
	level := "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	logger.Init(level, "console")

	cfg, err := infrastructure.ProvideConfig()
	if err != nil {
		return nil, nil, err
	}
	registry, err := infrastructure.ProvideTemplateRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}
	service := domainreplicate.NewReplicateService(
		infrastructure.ProvideReplicateClient(cfg),
		registry,
		infrastructure.ProvideServiceConfig(cfg),
	)
	route := mcp.NewMCPRoute(mcp.NewReplicateMCP(service), mcp.NewTemplateMCP(service))

	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()
	serverSession, err := route.Server().Connect(ctx, serverTransport, nil)
	if err != nil {
		return nil, nil, err
	}
	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "replicate-cli", Version: mcp.ServerVersion}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		_ = serverSession.Close()
		return nil, nil, err
	}
	closeFn := func() {
		_ = session.Close()
		_ = serverSession.Close()
	}
	return session, closeFn, nil
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	session, closeFn, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := session.ListTools(ctx, &mcpsdk.ListToolsParams{})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOOL\tREAD-ONLY\tDESCRIPTION")
	for _, tool := range res.Tools {
		readOnly := tool.Annotations != nil && tool.Annotations.ReadOnlyHint
		fmt.Fprintf(tw, "%s\t%t\t%s\n", tool.Name, readOnly, tool.Description)
	}
	return tw.Flush()
}

func runToolsCall(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("args")
	var arguments map[string]any
	if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
		return fmt.Errorf("--args must be a JSON object: %w", err)
	}

	ctx := cmd.Context()
	session, closeFn, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: args[0], Arguments: arguments})
	if err != nil {
		return err
	}
	if err := printToolResult(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if res.IsError {
		return fmt.Errorf("tool %s failed", args[0])
	}
	return nil
}

func printToolResult(w io.Writer, res *mcpsdk.CallToolResult) error {
	for _, content := range res.Content {
		text, ok := content.(*mcpsdk.TextContent)
		if !ok {
			continue
		}
		var pretty any
		if err := json.Unmarshal([]byte(text.Text), &pretty); err != nil {
			fmt.Fprintln(w, text.Text)
			continue
		}
		if err := writeValue(w, "json", pretty); err != nil {
			return err
		}
	}
	return nil
}
