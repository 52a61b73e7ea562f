package cli

import (
	"github.com/spf13/cobra"

	"github.com/typeir/rvm/rvm"
	"github.com/typeir/rvm/server"
)

func newServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ResolveType Connect server",
		Args:  cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rvm.LoadConfig(rootOpts.ConfigDir)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			srv, err := server.New(cfg)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cfg.Server.Address)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides rvm.toml)")
	return cmd
}
