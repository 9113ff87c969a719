package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/janhq/replicate-mcp/internal/domain/template"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Parameter template commands",
	Long:  `List, show, lint and try out parameter templates, built-in or loaded from YAML.`,
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE:  runTemplatesList,
}

var templatesShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Show one template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesShow,
}

var templatesApplyCmd = &cobra.Command{
	Use:   "apply [key]",
	Short: "Merge parameters over a template's defaults and validate them",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesApply,
}

var templatesLintCmd = &cobra.Command{
	Use:   "lint [file]",
	Short: "Check that a templates YAML file parses and its schemas resolve",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesLint,
}

func init() {
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	templatesCmd.AddCommand(templatesApplyCmd)
	templatesCmd.AddCommand(templatesLintCmd)

	templatesCmd.PersistentFlags().StringP("file", "f", "", "Extra templates YAML layered over the built-ins")

	templatesListCmd.Flags().String("family", "", "Only list one family (sd, llama, controlnet)")
	templatesShowCmd.Flags().String("format", "json", "Output format: json, yaml")
	templatesApplyCmd.Flags().String("params", "{}", "Caller parameters as a JSON object")
}

func loadRegistry(cmd *cobra.Command) (*template.Registry, error) {
	file, _ := cmd.Flags().GetString("file")
	return template.NewRegistryFromFile(file)
}

func runTemplatesList(cmd *cobra.Command, _ []string) error {
	registry, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	family, _ := cmd.Flags().GetString("family")

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tID\tMODEL TYPE\tNAME")
	for _, t := range registry.List(family) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Key, t.ID, t.ModelType, t.Name)
	}
	return tw.Flush()
}

func runTemplatesShow(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	t, ok := registry.Get(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", template.ErrUnknownTemplate, args[0])
	}
	format, _ := cmd.Flags().GetString("format")
	return writeValue(cmd.OutOrStdout(), format, t)
}

func runTemplatesApply(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetString("params")
	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return fmt.Errorf("--params must be a JSON object: %w", err)
	}
	merged, err := registry.Apply(args[0], params)
	if err != nil {
		return err
	}
	return writeValue(cmd.OutOrStdout(), "json", merged)
}

func runTemplatesLint(cmd *cobra.Command, args []string) error {
	templates, err := template.LoadFile(args[0])
	if err != nil {
		return err
	}
	if _, err := template.NewRegistry(templates...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d templates OK\n", args[0], len(templates))
	return nil
}

func writeValue(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		// round-trip through JSON so yaml keys follow the json tags
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
