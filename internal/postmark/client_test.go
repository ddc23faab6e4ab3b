package postmark

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendEmailErrorIncludesProviderMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid 'From' address"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	err := c.SendEmail(context.Background(), Message{From: "bad", To: "inbound@x.com"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "Invalid 'From' address") {
		t.Fatalf("error does not carry provider message: %v", err)
	}
}

func TestNewClientDefaultsBaseURL(t *testing.T) {
	c := NewClient("", "tok")
	if c.baseURL != defaultBaseURL {
		t.Fatalf("base url = %q", c.baseURL)
	}
	c = NewClient("http://localhost:9999/", "tok")
	if c.baseURL != "http://localhost:9999" {
		t.Fatalf("trailing slash not trimmed: %q", c.baseURL)
	}
}
