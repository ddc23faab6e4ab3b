// Package inbound is the adapter boundary for the email round-trip.
//
// Postmark's inbound parse does not pass metadata through, so the outbound
// relay embeds a JSON envelope carrying the ticket id in the message text
// body; when the provider posts the parsed message back, the envelope is
// recovered from the round-tripped TextBody. Any shape mismatch is reported
// as errs.ErrMalformedCallback rather than parsed ad hoc.
package inbound

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/errs"
)

// Envelope is the typed payload round-tripped through the email provider.
type Envelope struct {
	TicketID string `json:"ticket_id"`
	Email    string `json:"email"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// EncodeEnvelope serializes the envelope for the outbound TextBody.
func EncodeEnvelope(e Envelope) (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("inbound: encode envelope: %w", err)
	}
	return string(b), nil
}

// Callback is the subset of Postmark's inbound-parse payload the pipeline
// reads. The full raw body is kept separately for the audit trail.
type Callback struct {
	From      string `json:"From"`
	FromName  string `json:"FromName"`
	To        string `json:"To"`
	Subject   string `json:"Subject"`
	TextBody  string `json:"TextBody"`
	HtmlBody  string `json:"HtmlBody"`
	MessageID string `json:"MessageID"`
	Date      string `json:"Date"`
	Headers   []struct {
		Name  string `json:"Name"`
		Value string `json:"Value"`
	} `json:"Headers"`
}

// ParseCallback decodes the provider callback body and recovers the ticket
// envelope from the round-tripped text body.
func ParseCallback(body []byte) (*Callback, *Envelope, error) {
	var cb Callback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errs.ErrMalformedCallback, err)
	}
	env, err := parseEnvelope(cb.TextBody)
	if err != nil {
		return nil, nil, err
	}
	return &cb, env, nil
}

func parseEnvelope(textBody string) (*Envelope, error) {
	s := strings.TrimSpace(textBody)
	if s == "" {
		return nil, fmt.Errorf("%w: empty text body", errs.ErrMalformedCallback)
	}
	// Some providers append a signature or quote markers below the original
	// text; the envelope is the first JSON object in the body.
	if i := strings.Index(s, "{"); i > 0 {
		s = s[i:]
	}
	dec := json.NewDecoder(strings.NewReader(s))
	var env Envelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: text body is not a ticket envelope", errs.ErrMalformedCallback)
	}
	if env.TicketID == "" {
		return nil, fmt.Errorf("%w: envelope missing ticket_id", errs.ErrMalformedCallback)
	}
	return &env, nil
}
