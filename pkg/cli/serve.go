package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pr-poehali-dev/cad-engineer-website/pkg/server"
)

func newServeCommand(rt *runtimeState) *cobra.Command {
	var flags ServeFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the contact endpoint (and optionally the website) over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.Apply(&rt.cfg.Server)
			Print(rt.sugar(), rt.cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.NewServer(rt.log, rt.cfg.Server, rt.contactHandler(), rt.flags.Debug)
			return srv.Run(ctx)
		},
	}

	flags.Bind(cmd.Flags())
	return cmd
}
