package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/unfurl-sh/unfurl/engine/chain"
	"github.com/unfurl-sh/unfurl/engine/chain/links"
	"github.com/unfurl-sh/unfurl/engine/expand"
	"github.com/unfurl-sh/unfurl/engine/pipeline"
	"github.com/unfurl-sh/unfurl/engine/resolver"
	"github.com/unfurl-sh/unfurl/pkg/logger"
	"github.com/unfurl-sh/unfurl/pkg/tplengine"
)

// ExpandCmd builds the expand subcommand.
func ExpandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand [SOURCE...]",
		Short: "Expand configuration sources into a flat task list",
		Long: "Expand resolves each SOURCE (local path, URL, abbreviated URL, or " +
			"inline YAML/JSON), overlay-merges the resulting trees, and prints " +
			"the flattened task items.",
		Args: cobra.MinimumNArgs(1),
		RunE: runExpand,
	}
	cmd.Flags().StringArray("var", nil, "initial variable as key=value (repeatable)")
	cmd.Flags().StringArray("abbrev", nil, "custom URL abbreviation as short=full (repeatable)")
	cmd.Flags().Bool("strict", false, "fail on the first structural error instead of warning")
	cmd.Flags().String("output", "", "output format: yaml or json")
	cmd.Flags().String("tasks-key", "", "key that nests child item groups")
	return cmd
}

func runExpand(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := logger.ContextWithLogger(cmd.Context(), log)

	strict, _ := cmd.Flags().GetBool("strict")
	strict = strict || cfg.Strict
	output := cfg.Output
	if cmd.Flags().Changed("output") {
		output, _ = cmd.Flags().GetString("output")
	}
	tasksKey := cfg.TasksKey
	if cmd.Flags().Changed("tasks-key") {
		tasksKey, _ = cmd.Flags().GetString("tasks-key")
	}

	initial, err := parseVars(cmd)
	if err != nil {
		return err
	}
	abbrevOptions, err := parseAbbrevs(cmd)
	if err != nil {
		return err
	}

	engine := tplengine.NewEngine()
	engine.AddGlobalValue("env", tplengine.EnvNamespace(os.Environ()))
	registry := links.Default(resolver.NewAuto(), engine)

	sourceChain, err := registry.Build([]chain.Spec{
		{ID: links.AbbrevID, Options: abbrevOptions},
		{ID: links.FetchID},
		{ID: links.ParseID},
		{ID: links.LoadMoreID},
	})
	if err != nil {
		return err
	}
	nodeChain, err := registry.Build([]chain.Spec{
		{ID: links.TemplateID},
	})
	if err != nil {
		return err
	}

	p := pipeline.New(
		pipeline.WithSourceChain(sourceChain),
		pipeline.WithStrict(strict),
		pipeline.WithExpander(expand.New(
			expand.WithTasksKey(tasksKey),
			expand.WithStrict(strict),
			expand.WithChain(nodeChain),
		)),
	)

	result, err := p.Run(ctx, args, initial)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		log.Warn(w.Message, "path", w.Path.String())
	}
	return printItems(cmd, result, output)
}

func parseVars(cmd *cobra.Command) (expand.Vars, error) {
	pairs, _ := cmd.Flags().GetStringArray("var")
	vars := expand.Vars{}
	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --var %q: expected key=value", pair)
		}
		// YAML-parse the value so numbers and booleans keep their type
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		vars[key] = value
	}
	return vars, nil
}

func parseAbbrevs(cmd *cobra.Command) (map[string]any, error) {
	pairs, _ := cmd.Flags().GetStringArray("abbrev")
	if len(pairs) == 0 {
		return nil, nil
	}
	abbrevs := map[string]any{}
	for _, pair := range pairs {
		short, full, found := strings.Cut(pair, "=")
		if !found || short == "" || full == "" {
			return nil, fmt.Errorf("invalid --abbrev %q: expected short=full", pair)
		}
		abbrevs[short] = full
	}
	return map[string]any{"abbrevs": abbrevs}, nil
}

func printItems(cmd *cobra.Command, result *expand.Result, output string) error {
	switch output {
	case "", "yaml":
		out, err := yaml.Marshal(result.Items)
		if err != nil {
			return fmt.Errorf("failed to marshal items: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	case "json":
		out, err := json.MarshalIndent(result.Items, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal items: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", output)
	}
}
