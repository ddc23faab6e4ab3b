package handler

import (
	"log"
	"net/http"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/model"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/relay"
	"github.com/gin-gonic/gin"
)

// TriggerHandler is the document-creation trigger endpoint: it accepts the
// raw ticket document and dispatches the outbound relay. The trigger always
// receives a success acknowledgement; delivery failures are recorded on the
// ticket itself.
type TriggerHandler struct {
	relay *relay.Relay
}

func NewTriggerHandler(r *relay.Relay) *TriggerHandler {
	return &TriggerHandler{relay: r}
}

type triggerRequest struct {
	ID      string `json:"id" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body"`
}

func (h *TriggerHandler) TriggerEmailParsing(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
		return
	}
	t := &model.Ticket{
		ID:      req.ID,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	}
	if err := h.relay.Dispatch(c.Request.Context(), t); err != nil {
		log.Printf("trigger: dispatch for ticket %s: %v", t.ID, err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
