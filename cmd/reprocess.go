package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/config"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/database"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/kafka"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/model"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/postmark"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/relay"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/service"
	"github.com/spf13/cobra"
)

var reprocessFailed bool

var reprocessCmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Re-dispatch tickets stuck in waiting (and optionally failed) through the email relay",
	RunE:  runReprocess,
}

func init() {
	reprocessCmd.Flags().BoolVar(&reprocessFailed, "failed", false, "also re-dispatch tickets in the failed state")
}

func runReprocess(cmd *cobra.Command, args []string) error {
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

	tickets := service.NewTicketService(db)
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket)
	defer producer.Close()
	postmarkClient := postmark.NewClient(cfg.Postmark.APIURL, cfg.Postmark.ServerToken)
	ticketRelay := relay.New(postmarkClient, tickets, producer, cfg.Postmark.FromEmail, cfg.Postmark.ToEmail)

	states := []model.ProcessingStatus{model.ProcessingWaiting}
	if reprocessFailed {
		states = append(states, model.ProcessingFailed)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	filter := map[string]interface{}{"processing_status IN ?": states}
	stuck, total, err := tickets.List(ctx, filter, 0, 0)
	if err != nil {
		return fmt.Errorf("list tickets: %w", err)
	}
	log.Printf("reprocess: found %d stuck tickets", total)

	var dispatched int
	for i := range stuck {
		t := &stuck[i]
		if t.ProcessingStatus == model.ProcessingFailed {
			// Re-arm the failed ticket so the relay's waiting guard accepts it.
			if _, err := tickets.Update(ctx, t.ID, "", map[string]interface{}{
				"processing_status": model.ProcessingWaiting,
				"failure_reason":    "",
			}); err != nil {
				log.Printf("reprocess: re-arm ticket %s: %v", t.ID, err)
				continue
			}
		}
		if err := ticketRelay.Dispatch(ctx, t); err != nil {
			log.Printf("reprocess: dispatch ticket %s: %v", t.ID, err)
			continue
		}
		dispatched++
		if (i+1)%50 == 0 || i == len(stuck)-1 {
			log.Printf("reprocess: dispatched %d/%d", dispatched, len(stuck))
		}
	}
	log.Printf("reprocess: done, re-dispatched %d of %d tickets", dispatched, len(stuck))
	return nil
}
