package email

import (
	"context"
	"errors"
	"strings"
)

var ErrNoRecipient = errors.New("email: recipient is required")

type Message struct {
	To      string
	Subject string
	Body    string
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	return nil
}

// Sender delivers one plain-text message to one recipient.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
