package postmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.postmarkapp.com"

// Message is the Postmark send-email request body. MessageStream "inbound"
// routes the message through the account's inbound-parse pipeline so it is
// posted back to the webhook.
type Message struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	TextBody      string `json:"TextBody,omitempty"`
	HtmlBody      string `json:"HtmlBody,omitempty"`
	MessageStream string `json:"MessageStream,omitempty"`
}

// Client calls the Postmark email API with a server token.
type Client struct {
	baseURL     string
	serverToken string
	httpClient  *http.Client
}

// NewClient returns a client. An empty baseURL uses the production API.
func NewClient(baseURL, serverToken string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:     baseURL,
		serverToken: serverToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendEmail posts the message to the /email endpoint.
func (c *Client) SendEmail(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("postmark: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("postmark: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("postmark: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			ErrorCode int    `json:"ErrorCode"`
			Message   string `json:"Message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Message != "" {
			return fmt.Errorf("postmark: api error %d: %s", errResp.ErrorCode, errResp.Message)
		}
		return fmt.Errorf("postmark: api error: %s", resp.Status)
	}
	return nil
}
