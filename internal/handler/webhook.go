package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/errs"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/extract"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/inbound"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/kafka"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/service"
	"github.com/gin-gonic/gin"
)

// WebhookHandler receives the provider's inbound-parse callback and
// reconciles it with the originating ticket.
type WebhookHandler struct {
	svc      service.TicketServicer
	producer kafka.TicketEventProducer

	// extractor is optional; nil completes tickets without AI enrichment.
	extractor *extract.Extractor

	// apiKey authenticates the callback (X-Webhook-Key header). Empty
	// disables the check, for local development only.
	apiKey string
}

func NewWebhookHandler(svc service.TicketServicer, extractor *extract.Extractor, producer kafka.TicketEventProducer, apiKey string) *WebhookHandler {
	return &WebhookHandler{svc: svc, extractor: extractor, producer: producer, apiKey: apiKey}
}

// InvalidRequest answers any method other than POST on /parse-email, keeping
// the provider-facing contract: a 200 with a structured failure body.
func (h *WebhookHandler) InvalidRequest(c *gin.Context) {
	log.Printf("webhook: invalid request: %s %s", c.Request.Method, c.Request.URL.Path)
	c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid request"})
}

func (h *WebhookHandler) ParseEmail(c *gin.Context) {
	if h.apiKey != "" && c.GetHeader("X-Webhook-Key") != h.apiKey {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid request"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
		return
	}

	cb, env, err := inbound.ParseCallback(body)
	if err != nil {
		log.Printf("webhook: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "malformed callback"})
		return
	}
	log.Printf("webhook: inbound message %q from %s for ticket %s", cb.Subject, cb.From, env.TicketID)

	ctx := c.Request.Context()
	rawJSON := string(body)

	if h.extractor != nil {
		result, err := h.extractor.Extract(ctx, rawJSON)
		if err != nil {
			// Extraction failure is a terminal pipeline state, not a crash:
			// priority and description stay null and the ticket is failed.
			log.Printf("webhook: extraction for ticket %s: %v", env.TicketID, err)
			if ferr := h.svc.MarkFailed(ctx, env.TicketID, "extraction failed: "+err.Error()); ferr != nil {
				h.writeStoreError(c, env.TicketID, ferr)
				return
			}
			h.produce(c, kafka.EventTicketFailed, env.TicketID)
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "extraction failed"})
			return
		}
		if err := h.svc.Complete(ctx, env.TicketID, result.Description, result.Priority, rawJSON); err != nil {
			h.writeStoreError(c, env.TicketID, err)
			return
		}
	} else {
		if err := h.svc.CompleteRaw(ctx, env.TicketID, rawJSON); err != nil {
			h.writeStoreError(c, env.TicketID, err)
			return
		}
	}

	h.produce(c, kafka.EventTicketCompleted, env.TicketID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *WebhookHandler) writeStoreError(c *gin.Context, id string, err error) {
	switch {
	case errors.Is(err, errs.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "unknown ticket"})
	case errors.Is(err, errs.ErrInvalidTransition):
		// Duplicate or out-of-order callback: fail closed, leave the stored
		// result untouched.
		log.Printf("webhook: ticket %s not in processing state", id)
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "ticket not in processing state"})
	default:
		log.Printf("webhook: store update for ticket %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "store update failed"})
	}
}

func (h *WebhookHandler) produce(c *gin.Context, event, id string) {
	if h.producer == nil {
		return
	}
	if t, err := h.svc.GetByID(c.Request.Context(), id); err == nil {
		h.producer.ProduceTicketEvent(c.Request.Context(), event, t)
	}
}
