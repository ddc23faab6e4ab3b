package router

import (
	"net/http"
	"strings"

	"github.com/ChiragAgg5k/email-ticket-automator/api"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/handler"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	pathHealth  = "/health"
	pathReady   = "/ready"
	pathSwagger = "/swagger"
)

func New(ticketHandler *handler.TicketHandler, waitlistHandler *handler.WaitlistHandler, webhookHandler *handler.WebhookHandler, triggerHandler *handler.TriggerHandler) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET(pathHealth, gin.WrapF(handler.Health))
	r.GET(pathReady, gin.WrapF(handler.Ready))
	r.GET(pathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, pathSwagger+"/") })
	r.GET(pathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = pathSwagger + "/index.html"
			c.Request.RequestURI = pathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	// Provider callback: only POST is a real request, every other method
	// answers the structured failure body.
	r.POST("/parse-email", webhookHandler.ParseEmail)
	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead} {
		r.Handle(m, "/parse-email", webhookHandler.InvalidRequest)
	}

	// Document-creation trigger (the platform event hook of the managed
	// deployment; also usable for manual re-dispatch).
	r.POST("/v1/functions/trigger-email-parsing", triggerHandler.TriggerEmailParsing)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/tickets", ticketHandler.Create)
		v1.GET("/tickets/:id", ticketHandler.Get)
		v1.GET("/tickets", ticketHandler.List)
		v1.PUT("/tickets/:id", ticketHandler.Update)
		v1.DELETE("/tickets/:id", ticketHandler.Delete)

		v1.POST("/waitlist", waitlistHandler.Create)
	}

	return r
}
