package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/errs"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/kafka"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/model"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/relay"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/service"
	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	svc      service.TicketServicer
	relay    *relay.Relay
	producer kafka.TicketEventProducer
}

func NewTicketHandler(svc service.TicketServicer, r *relay.Relay, producer kafka.TicketEventProducer) *TicketHandler {
	return &TicketHandler{svc: svc, relay: r, producer: producer}
}

type createTicketRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	ticket := &model.Ticket{
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
		UserID:  c.GetHeader("X-User-Id"),
	}
	if err := h.svc.Create(c.Request.Context(), ticket); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create ticket"})
		return
	}
	if h.producer != nil {
		h.producer.ProduceTicketEvent(c.Request.Context(), kafka.EventTicketCreated, ticket)
	}
	// Fire the outbound relay off the request path; dashboard polling
	// surfaces the eventual state.
	if h.relay != nil {
		t := *ticket
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := h.relay.Dispatch(ctx, &t); err != nil {
				log.Printf("handler: relay dispatch for ticket %s: %v", t.ID, err)
			}
		}()
	}
	c.JSON(http.StatusCreated, ticket)
}

func (h *TicketHandler) Get(c *gin.Context) {
	t, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) List(c *gin.Context) {
	filter := make(map[string]interface{})
	if v := c.Query("email"); v != "" {
		filter["email = ?"] = v
	}
	if v := c.Query("status"); v != "" {
		filter["status = ?"] = v
	}
	if v := c.Query("processing_status"); v != "" {
		filter["processing_status = ?"] = v
	}
	if v := c.Query("user_id"); v != "" {
		filter["user_id = ?"] = v
	}

	limit := 0
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	items, total, err := h.svc.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tickets": items,
		"total":   total,
	})
}

type updateTicketRequest struct {
	Status  *string `json:"status,omitempty"`
	Subject *string `json:"subject,omitempty"`
	Body    *string `json:"body,omitempty"`
}

// Update applies user-facing edits. Pipeline fields (processing_status,
// priority, description, raw_json) are not reachable from here.
func (h *TicketHandler) Update(c *gin.Context) {
	var req updateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	changes := make(map[string]interface{})
	if req.Status != nil {
		changes["status"] = *req.Status
	}
	if req.Subject != nil {
		changes["subject"] = *req.Subject
	}
	if req.Body != nil {
		changes["body"] = *req.Body
	}
	if len(changes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no changes"})
		return
	}
	t, err := h.svc.Update(c.Request.Context(), c.Param("id"), c.GetHeader("X-User-Id"), changes)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrTicketNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		case errors.Is(err, errs.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "not the ticket owner"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"), c.GetHeader("X-User-Id"))
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrTicketNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		case errors.Is(err, errs.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "not the ticket owner"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.Status(http.StatusNoContent)
}
