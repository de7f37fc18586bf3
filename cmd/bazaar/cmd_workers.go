package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/queue"
	"github.com/shashiranjanraj/bazaar/pkg/schedule"
)

var queueWorkersFlag int

// bazaar queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Process queued jobs until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := boot(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		workers := queueWorkersFlag
		if workers < 1 {
			workers = config.QueueWorkers()
		}
		queue.StartWorkers(ctx, workers)
		fmt.Printf("Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)

		<-ctx.Done()
		queue.Wait()
		fmt.Println("Queue worker stopped.")
		return nil
	},
}

// bazaar schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Run scheduled tasks until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := boot(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		importer := services.NewImportService(rt.DB, rt.Disk)
		err = schedule.Cron(config.PartnerRefreshCron()).
			Name("partner:refresh").
			WithoutOverlapping().
			Run(func(ctx context.Context) {
				report, err := importer.RefreshAll(ctx, config.PartnerRefreshWorkers())
				if err != nil {
					logger.Error("schedule: partner refresh failed", "error", err)
					return
				}
				logger.Info("schedule: partner refresh done",
					"shops", report.Shops, "succeeded", report.Succeeded, "failed", report.Failed)
			})
		if err != nil {
			return err
		}

		for _, t := range schedule.List() {
			fmt.Println("  •", t)
		}
		stopScheduler, err := schedule.Start(ctx)
		if err != nil {
			return err
		}
		if config.QueueDriver() != "sync" {
			queue.StartWorkers(ctx, config.QueueWorkers())
		}
		fmt.Println("Scheduler started. Press Ctrl+C to stop.")

		<-ctx.Done()
		stopScheduler()
		fmt.Println("Scheduler stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "Number of concurrent workers (default QUEUE_WORKERS)")
}
