package capability

import (
	"context"
	"fmt"
	"strings"

	"scour/core"
)

// Messaging is the capability name for message-sending backends.
const Messaging = "messaging"

// Message is one outgoing message.
type Message struct {
	Record
	To      string
	Subject string
	Body    string
}

// MessagingBackend is implemented by modules exposing the messaging
// capability.
type MessagingBackend interface {
	SendMessage(ctx context.Context, msg *Message) error
}

// SendMessageOp dispatches MessagingBackend.SendMessage. Sending produces
// no results, only errors.
func SendMessageOp(msg *Message) core.Operation {
	return func(ctx context.Context, h *core.BackendHandle) (any, error) {
		b, ok := h.Instance().(MessagingBackend)
		if !ok {
			return nil, fmt.Errorf("backend %s does not implement %s", h, Messaging)
		}
		return nil, b.SendMessage(ctx, msg)
	}
}

func init() {
	RegisterOp(Messaging, "send", func(args []string) (core.Operation, error) {
		if len(args) < 3 {
			return nil, fmt.Errorf("usage: messaging send <to> <subject> <body...>")
		}
		msg := &Message{
			To:      args[0],
			Subject: args[1],
			Body:    strings.Join(args[2:], " "),
		}
		return SendMessageOp(msg), nil
	})
}
