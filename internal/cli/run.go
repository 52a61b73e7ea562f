package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/typeir/rvm/rvm"
)

func newRunCommand(rootOpts *RootOptions) *cobra.Command {
	var inputsPath string

	cmd := &cobra.Command{
		Use:   "run <program.json>",
		Short: "Resolve a Packed Program and print its Type IR",
		Args:  cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(rootOpts, cmd, args[0], inputsPath)
		},
	}
	cmd.Flags().StringVar(&inputsPath, "inputs", "", "path to a JSON array of literal type arguments")
	return cmd
}

func runRun(rootOpts *RootOptions, cmd *cobra.Command, path, inputsPath string) error {
	program, err := loadProgram(path)
	if err != nil {
		return err
	}
	inputs, err := loadInputs(inputsPath)
	if err != nil {
		return err
	}

	registry := rvm.NewRegistry()
	result, err := rvm.ResolveRuntimeType(registry, program, inputs)
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
