package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/pehnawa/app/routes"
	"github.com/shashiranjanraj/pehnawa/config"
	"github.com/shashiranjanraj/pehnawa/internal/bootstrap"
	"github.com/shashiranjanraj/pehnawa/internal/kernel"
	"github.com/shashiranjanraj/pehnawa/internal/server"
)

func serveCmd() *cobra.Command {
	var migrate bool
	var noWorkers bool

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"run"},
		Short:   "Start the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := bootstrap.New(ctx)
			if err != nil {
				return err
			}
			defer app.Close(context.Background())

			if migrate {
				if err := runMigrations(ctx, app.DB); err != nil {
					return err
				}
			}

			bg, cancel := context.WithCancel(ctx)
			if noWorkers {
				app.StartScheduler(bg)
			} else {
				app.Start(bg)
			}

			err = server.Run(ctx, server.Config{
				Addr:     ":" + config.AppPort(),
				Handler:  app.Handler(),
				GRPC:     app.GRPC,
				GRPCAddr: ":" + config.GRPCPort(),
			})
			cancel()
			app.Wait()
			return err
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	cmd.Flags().BoolVar(&noWorkers, "no-workers", false, "leave queued jobs to a separate queue:work process")
	return cmd
}

func routeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route:list",
		Short: "List every named route",
		RunE: func(cmd *cobra.Command, _ []string) error {
			placeholder := http.NotFoundHandler()
			r := kernel.New(routes.Handlers{
				GraphQL: placeholder,
				Stock:   placeholder,
				Metrics: placeholder,
				Storage: placeholder,
			}, kernel.Options{})

			infos := r.Routes()
			sort.Slice(infos, func(i, j int) bool {
				if infos[i].Path != infos[j].Path {
					return infos[i].Path < infos[j].Path
				}
				return infos[i].Method < infos[j].Method
			})

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATH\tNAME")
			for _, ri := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
			}
			return w.Flush()
		},
	}
}
