package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/typeir/rvm/rvm"
)

func newResolveOfCommand(rootOpts *RootOptions) *cobra.Command {
	var inputsPath string

	cmd := &cobra.Command{
		Use:   "resolve-of <handle.json>",
		Short: "Resolve a handle's own __type-embedded Packed Program",
		Args:  cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolveOf(rootOpts, cmd, args[0], inputsPath)
		},
	}
	cmd.Flags().StringVar(&inputsPath, "inputs", "", "path to a JSON array of literal type arguments")
	return cmd
}

// runResolveOf loads a handle JSON value — either an object carrying its
// program under "__type", or a bare program array — and resolves it via
// rvm.ResolveTypeOf, the CLI's counterpart to "run" for callers that hold a
// handle rather than an already-extracted program.
func runResolveOf(rootOpts *RootOptions, cmd *cobra.Command, path, inputsPath string) error {
	handle, err := loadHandle(path)
	if err != nil {
		return err
	}
	inputs, err := loadInputs(inputsPath)
	if err != nil {
		return err
	}

	registry := rvm.NewRegistry()
	result, err := rvm.ResolveTypeOf(registry, handle, inputs)
	if err != nil {
		return fmt.Errorf("rvmctl: %w", err)
	}

	if rootOpts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(nodeToMap(result))
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Kind.String())
	return nil
}

func loadHandle(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rvmctl: read %s: %w", path, err)
	}
	var handle any
	if err := json.Unmarshal(data, &handle); err != nil {
		return nil, fmt.Errorf("rvmctl: parse %s: %w", path, err)
	}
	return handle, nil
}
