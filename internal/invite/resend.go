// CanineKind | 2026
// resend.go

package invite

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

type resendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) Mailer {
	return &resendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (m *resendMailer) Send(ctx context.Context, email Email) (string, error) {
	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}

	return sent.Id, nil
}
