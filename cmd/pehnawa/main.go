// Command pehnawa runs the storefront API and its maintenance tasks.
//
//	pehnawa serve --migrate   # HTTP + gRPC, queue workers and scheduler
//	pehnawa migrate           # apply pending migrations
//	pehnawa migrate:rollback
//	pehnawa migrate:status
//	pehnawa seed              # admin user, categories, sample products
//	pehnawa route:list
//	pehnawa queue:work        # workers only (redis queue)
//	pehnawa queue:failed
//	pehnawa schedule:run
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pehnawa",
		Short:         "Pehnawa clothing storefront API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		routeListCmd(),

		migrateCmd(),
		migrateRollbackCmd(),
		migrateStatusCmd(),
		migrateResetCmd(),
		seedCmd(),

		queueWorkCmd(),
		queueFailedCmd(),
		queueRetryCmd(),
		scheduleRunCmd(),
		scheduleListCmd(),
	)
	return root
}
