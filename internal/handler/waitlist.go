package handler

import (
	"net/http"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/model"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/service"
	"github.com/gin-gonic/gin"
)

type WaitlistHandler struct {
	svc service.WaitlistServicer
}

func NewWaitlistHandler(svc service.WaitlistServicer) *WaitlistHandler {
	return &WaitlistHandler{svc: svc}
}

type createWaitlistRequest struct {
	FullName              string `json:"full_name" binding:"required"`
	WorkEmail             string `json:"work_email" binding:"required,email"`
	CompanyName           string `json:"company_name" binding:"required"`
	MonthlySupportTickets string `json:"monthly_support_tickets" binding:"required"`
}

func (h *WaitlistHandler) Create(c *gin.Context) {
	var req createWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	entry := &model.WaitlistEntry{
		FullName:              req.FullName,
		WorkEmail:             req.WorkEmail,
		CompanyName:           req.CompanyName,
		MonthlySupportTickets: req.MonthlySupportTickets,
	}
	if err := h.svc.Create(c.Request.Context(), entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join waitlist"})
		return
	}
	c.JSON(http.StatusCreated, entry)
}
