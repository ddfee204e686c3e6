package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Provider delivers a single notification to its recipient.
type Provider interface {
	Send(ctx context.Context, n *Notification) error
}

// LogProvider writes notifications to the application log. It is the
// default in development.
type LogProvider struct {
	Logger zerolog.Logger
}

func (p LogProvider) Send(_ context.Context, n *Notification) error {
	p.Logger.Info().
		Str("recipient", n.Recipient).
		Str("subject", n.Subject).
		Msg("notification")
	return nil
}

// WebhookProvider POSTs notifications as JSON to a configured URL.
type WebhookProvider struct {
	URL    string
	Client *http.Client
}

func NewWebhookProvider(url string) WebhookProvider {
	return WebhookProvider{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (p WebhookProvider) Send(ctx context.Context, n *Notification) error {
	payload, err := json.Marshal(map[string]string{
		"recipient": n.Recipient,
		"subject":   n.Subject,
		"body":      n.Body,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// SMTPProvider sends plain-text mail through a relay.
type SMTPProvider struct {
	Addr string
	From string
}

func (p SMTPProvider) Send(_ context.Context, n *Notification) error {
	if !strings.Contains(n.Recipient, "@") {
		return fmt.Errorf("recipient %q is not a mail address", n.Recipient)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		p.From, n.Recipient, n.Subject, n.Body)
	return smtp.SendMail(p.Addr, nil, p.From, []string{n.Recipient}, []byte(msg))
}
