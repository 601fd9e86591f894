package service

import (
	"context"
	"strings"

	"github.com/resend/resend-go/v2"
)

type ResendEmailSender struct {
	client *resend.Client
	From   string
}

// NewResendEmailSender returns a sender whose Send always fails with
// ErrSenderNotReady when the API key or from address is missing.
func NewResendEmailSender(apiKey string, from string) *ResendEmailSender {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return &ResendEmailSender{}
	}
	return &ResendEmailSender{
		client: resend.NewClient(apiKey),
		From:   from,
	}
}

func (s *ResendEmailSender) Send(ctx context.Context, to string, subject string, body string) error {
	if s.client == nil {
		return ErrSenderNotReady
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.From,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	})
	return err
}
