// CanineKind | 2026
// mailer.go

package invite

import (
	"context"
	"log/slog"
)

type Email struct {
	To      string
	Subject string
	HTML    string
}

// Mailer sends a single transactional email and returns the provider's
// message id when it has one.
type Mailer interface {
	Send(ctx context.Context, email Email) (string, error)
}

// consoleMailer logs instead of sending; development only.
type consoleMailer struct {
	logger *slog.Logger
}

func NewConsoleMailer(logger *slog.Logger) Mailer {
	return &consoleMailer{logger: logger}
}

func (m *consoleMailer) Send(ctx context.Context, email Email) (string, error) {
	m.logger.InfoContext(ctx, "email not sent (console mailer)",
		"to", email.To,
		"subject", email.Subject,
		"body", email.HTML,
	)
	return "console", nil
}
