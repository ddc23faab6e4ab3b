package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/config"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/database"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/service"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the store and report pipeline transitions for in-flight tickets",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}

	poller := watch.NewPoller(service.NewTicketService(db), watch.DefaultInterval)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := poller.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
