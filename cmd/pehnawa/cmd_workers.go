package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/pehnawa/config"
	"github.com/shashiranjanraj/pehnawa/internal/bootstrap"
	"github.com/shashiranjanraj/pehnawa/pkg/logger"
)

// withApp builds the full graph for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	app, err := bootstrap.New(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close(context.Background())
	return fn(cmd.Context(), app)
}

func queueWorkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue:work",
		Short: "Process queued jobs until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if !strings.EqualFold(config.QueueDriver(), "redis") {
					logger.Warn("queue:work: the memory driver only sees jobs pushed by this process")
				}
				app.StartWorkers(ctx)
				<-ctx.Done()
				app.Wait()
				return nil
			})
		},
	}
}

func queueFailedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue:failed",
		Short: "List jobs that exhausted their retries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				failed, err := app.Queue.FailedJobs(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "ID\tTYPE\tATTEMPTS\tFAILED AT\tERROR")
				for _, f := range failed {
					fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", f.ID, f.JobType, f.Attempts, f.FailedAt.Format("2006-01-02 15:04:05"), f.Error)
				}
				return w.Flush()
			})
		},
	}
}

func queueRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue:retry <id>...",
		Short: "Push failed jobs back onto the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				for _, arg := range args {
					id, err := strconv.ParseUint(arg, 10, 64)
					if err != nil {
						return fmt.Errorf("invalid job id %q", arg)
					}
					if err := app.Queue.Retry(ctx, uint(id)); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "queued:", id)
				}
				return nil
			})
		},
	}
}

func scheduleRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule:run",
		Short: "Run scheduled tasks (and the workers their jobs need) until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				app.StartWorkers(ctx)
				app.StartScheduler(ctx)
				<-ctx.Done()
				app.Wait()
				return nil
			})
		},
	}
}

func scheduleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule:list",
		Short: "List scheduled tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(_ context.Context, app *bootstrap.App) error {
				for _, task := range app.Scheduler.List() {
					fmt.Fprintln(cmd.OutOrStdout(), task)
				}
				return nil
			})
		},
	}
}
