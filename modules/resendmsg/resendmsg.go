// Package resendmsg implements the messaging capability on top of the
// Resend email API. Required parameters: api_key, from. An optional "to"
// parameter overrides the recipient of every message.
package resendmsg

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"scour/capability"
	"scour/core"
)

type Backend struct {
	from   string
	to     string
	client *resend.Client
}

func New(params map[string]string) (*Backend, error) {
	apiKey := params["api_key"]
	if apiKey == "" {
		return nil, fmt.Errorf("missing required parameter %q", "api_key")
	}
	from := params["from"]
	if from == "" {
		return nil, fmt.Errorf("missing required parameter %q", "from")
	}
	return &Backend{
		from:   from,
		to:     params["to"],
		client: resend.NewClient(apiKey),
	}, nil
}

func (b *Backend) SendMessage(ctx context.Context, msg *capability.Message) error {
	to := msg.To
	if b.to != "" {
		to = b.to
	}
	if to == "" {
		return fmt.Errorf("message has no recipient")
	}

	params := &resend.SendEmailRequest{
		From:    b.from,
		To:      []string{to},
		Subject: msg.Subject,
		Text:    msg.Body,
	}

	if _, err := b.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("sending message via resend: %w", err)
	}
	return nil
}

func init() {
	core.RegisterModule(&core.Module{
		Name:         "resendmsg",
		Description:  "Message delivery over the Resend email API",
		Version:      "0.3.0",
		RequiresCore: "0.3.0",
		Capabilities: []string{capability.Messaging},
		New: func(params map[string]string) (any, error) {
			return New(params)
		},
	})
}
