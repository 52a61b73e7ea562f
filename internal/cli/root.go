package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by every rvmctl subcommand.
type RootOptions struct {
	ConfigDir string
	Format    string // "text" | "json"
}

// NewRootCommand creates the root rvmctl command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rvmctl",
		Short: "rvmctl - decode, run, and serve Packed Programs",
		Long:  "rvmctl operates on Packed Programs: JSON-encoded literal pool plus opcode string produced by a Reflection Virtual Machine transformer.",
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", ".", "directory containing rvm.toml")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newDecodeCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newResolveOfCommand(opts))
	cmd.AddCommand(newServeCommand(opts))

	return cmd
}
