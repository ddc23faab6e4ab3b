package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/model"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/service"
	"github.com/gin-gonic/gin"
)

func ticketRouter(store *service.MemoryTicketStore) http.Handler {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewTicketHandler(store, nil, nil)
	v1 := r.Group("/api/v1")
	v1.POST("/tickets", h.Create)
	v1.GET("/tickets/:id", h.Get)
	v1.GET("/tickets", h.List)
	v1.PUT("/tickets/:id", h.Update)
	v1.DELETE("/tickets/:id", h.Delete)
	return r
}

func doJSON(h http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCreateTicket(t *testing.T) {
	store := service.NewMemoryTicketStore()
	h := ticketRouter(store)

	w := doJSON(h, http.MethodPost, "/api/v1/tickets", map[string]string{
		"email":   "a@b.com",
		"subject": "Cannot login",
		"body":    "reset loop",
	}, map[string]string{"X-User-Id": "user-1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", w.Code, w.Body.String())
	}
	var created model.Ticket
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("no id assigned")
	}
	if created.Status != model.TicketStatusOpen || created.ProcessingStatus != model.ProcessingWaiting {
		t.Fatalf("initial states: %s/%s", created.Status, created.ProcessingStatus)
	}
	if created.UserID != "user-1" {
		t.Fatalf("user id = %q", created.UserID)
	}
}

func TestCreateTicketInvalidBody(t *testing.T) {
	h := ticketRouter(service.NewMemoryTicketStore())
	w := doJSON(h, http.MethodPost, "/api/v1/tickets", map[string]string{"email": "not-an-email"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetTicketNotFound(t *testing.T) {
	h := ticketRouter(service.NewMemoryTicketStore())
	w := doJSON(h, http.MethodGet, "/api/v1/tickets/missing", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestListTicketsByProcessingStatus(t *testing.T) {
	store := service.NewMemoryTicketStore()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_ = store.Create(ctx, &model.Ticket{Email: "a@b.com", Subject: "s", Body: "b"})
	}
	done := &model.Ticket{Email: "a@b.com", Subject: "s", Body: "b"}
	_ = store.Create(ctx, done)
	_ = store.MarkProcessing(ctx, done.ID)

	h := ticketRouter(store)
	w := doJSON(h, http.MethodGet, "/api/v1/tickets?processing_status=waiting", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Tickets []model.Ticket `json:"tickets"`
		Total   int64          `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 3 || len(resp.Tickets) != 3 {
		t.Fatalf("total=%d len=%d, want 3/3", resp.Total, len(resp.Tickets))
	}
}

func TestUpdateTicketOwnership(t *testing.T) {
	store := service.NewMemoryTicketStore()
	owned := &model.Ticket{Email: "a@b.com", Subject: "s", Body: "b", UserID: "user-1"}
	_ = store.Create(context.Background(), owned)
	h := ticketRouter(store)

	w := doJSON(h, http.MethodPut, "/api/v1/tickets/"+owned.ID, map[string]string{"status": "closed"},
		map[string]string{"X-User-Id": "intruder"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("intruder update: status %d, want 403", w.Code)
	}

	w = doJSON(h, http.MethodPut, "/api/v1/tickets/"+owned.ID, map[string]string{"status": "closed"},
		map[string]string{"X-User-Id": "user-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("owner update: status %d (%s)", w.Code, w.Body.String())
	}
	got, _ := store.GetByID(context.Background(), owned.ID)
	if got.Status != model.TicketStatusClosed {
		t.Fatalf("status = %q, want closed", got.Status)
	}
}

func TestDeleteTicket(t *testing.T) {
	store := service.NewMemoryTicketStore()
	owned := &model.Ticket{Email: "a@b.com", Subject: "s", Body: "b", UserID: "user-1"}
	_ = store.Create(context.Background(), owned)
	h := ticketRouter(store)

	if w := doJSON(h, http.MethodDelete, "/api/v1/tickets/"+owned.ID, nil, map[string]string{"X-User-Id": "intruder"}); w.Code != http.StatusForbidden {
		t.Fatalf("intruder delete: status %d, want 403", w.Code)
	}
	if w := doJSON(h, http.MethodDelete, "/api/v1/tickets/"+owned.ID, nil, map[string]string{"X-User-Id": "user-1"}); w.Code != http.StatusNoContent {
		t.Fatalf("owner delete: status %d, want 204", w.Code)
	}
}
