package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/typeir/rvm/rvm"
)

func newDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <program.json>",
		Short: "Disassemble a Packed Program's opcode stream",
		Args:  cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runDecode(rootOpts *RootOptions, cmd *cobra.Command, path string) error {
	program, err := loadProgram(path)
	if err != nil {
		return err
	}
	instructions := rvm.Disassemble(program.Ops)

	if rootOpts.Format == "json" {
		type jsonInstr struct {
			Index    int    `json:"index"`
			Op       string `json:"op"`
			Operands []int  `json:"operands,omitempty"`
		}
		out := make([]jsonInstr, len(instructions))
		for i, ins := range instructions {
			out[i] = jsonInstr{Index: ins.Index, Op: ins.Op.Name(), Operands: ins.Operands}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, ins := range instructions {
		fmt.Fprintln(cmd.OutOrStdout(), ins.String())
	}
	return nil
}

func loadProgram(path string) (*rvm.PackedProgram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rvmctl: read %s: %w", path, err)
	}
	var raw rvm.RawProgram
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rvmctl: parse %s: %w", path, err)
	}
	return rvm.DecodeProgram(raw), nil
}

func loadInputs(path string) ([]*rvm.Node, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rvmctl: read %s: %w", path, err)
	}
	var literals []any
	if err := json.Unmarshal(data, &literals); err != nil {
		return nil, fmt.Errorf("rvmctl: parse %s: %w", path, err)
	}
	inputs := make([]*rvm.Node, len(literals))
	for i, v := range literals {
		if v == nil {
			inputs[i] = rvm.UndefinedNode
			continue
		}
		inputs[i] = rvm.NewLiteralNode(v)
	}
	return inputs, nil
}
