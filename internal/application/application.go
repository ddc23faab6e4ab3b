package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/ai"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/config"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/database"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/extract"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/handler"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/kafka"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/postmark"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/relay"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/router"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/service"
)

// API is the application for the api mode: HTTP server plus the pipeline
// collaborators, all explicitly constructed and injected here. None of the
// clients live at package scope.
type API struct {
	cfg      *config.Config
	httpSrv  *http.Server
	producer *kafka.Producer
}

// newExtractor builds the extraction step from config, or nil when no AI
// provider is configured.
func newExtractor(cfg *config.Config) (*extract.Extractor, error) {
	switch cfg.AI.Provider {
	case "":
		return nil, nil
	case "gemini":
		client, err := ai.NewGeminiClient(cfg.AI.APIKey)
		if err != nil {
			return nil, err
		}
		return extract.New(ai.NewGeminiGenerator(client, cfg.AI.Model)), nil
	case "openai":
		return extract.New(ai.NewOpenAICompatGenerator(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model)), nil
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.AI.Provider)
	}
}

// NewAPI wires the application for the api mode.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	ticketSvc := service.NewTicketService(db)
	waitlistSvc := service.NewWaitlistService(db)
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket)

	postmarkClient := postmark.NewClient(cfg.Postmark.APIURL, cfg.Postmark.ServerToken)
	ticketRelay := relay.New(postmarkClient, ticketSvc, producer, cfg.Postmark.FromEmail, cfg.Postmark.ToEmail)

	extractor, err := newExtractor(cfg)
	if err != nil {
		return nil, fmt.Errorf("extractor: %w", err)
	}

	ticketHandler := handler.NewTicketHandler(ticketSvc, ticketRelay, producer)
	waitlistHandler := handler.NewWaitlistHandler(waitlistSvc)
	webhookHandler := handler.NewWebhookHandler(ticketSvc, extractor, producer, cfg.WebhookAPIKey)
	triggerHandler := handler.NewTriggerHandler(ticketRelay)

	mux := router.New(ticketHandler, waitlistHandler, webhookHandler, triggerHandler)

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{
		cfg:      cfg,
		httpSrv:  httpSrv,
		producer: producer,
	}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.httpSrv.Addr)
	log.Printf("  Swagger UI:    %s/swagger", base)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  API v1:        %s/api/v1/", base)
	log.Printf("  Webhook:       %s/parse-email", base)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.producer.Close(); err != nil {
		log.Printf("kafka: close: %v", err)
	}
	return nil
}
