package email

import (
	"context"
	"fmt"

	"github.com/wekeepgrowing/wallet-ledger/internal/config"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/provider"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPNotifier sends notifications through an SMTP relay
type SMTPNotifier struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	logger   *zap.Logger
}

// NewSMTPNotifier creates a notifier from the email config section
func NewSMTPNotifier(cfg config.EmailConfig, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		fromName: cfg.FromName,
		logger:   logger,
	}
}

func (s *SMTPNotifier) Name() string { return "smtp" }

// Notify sends both HTML and plain text parts. gomail has no context support,
// so a cancelled context is only honored before dialing.
func (s *SMTPNotifier) Notify(ctx context.Context, n provider.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.from, s.fromName))
	m.SetHeader("To", n.To)
	m.SetHeader("Subject", n.Subject)
	if n.TextBody != "" {
		m.SetBody("text/plain", n.TextBody)
	}
	if n.HTMLBody != "" {
		if n.TextBody != "" {
			m.AddAlternative("text/html", n.HTMLBody)
		} else {
			m.SetBody("text/html", n.HTMLBody)
		}
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", n.To, err)
	}

	s.logger.Debug("Email sent", zap.String("to", n.To), zap.String("subject", n.Subject))
	return nil
}

// LogNotifier records notifications instead of sending them. Used when SMTP
// is not configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Name() string { return "log" }

func (l *LogNotifier) Notify(ctx context.Context, n provider.Notification) error {
	l.logger.Info("Notification (email disabled)",
		zap.String("to", n.To),
		zap.String("subject", n.Subject))
	return nil
}
