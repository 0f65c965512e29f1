package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/internal/config"
	"github.com/fastygo/accounts/usecase"
)

// SMTPNotifier delivers messages through an SMTP relay. Each Send dials,
// delivers and closes; no connection is kept between requests.
type SMTPNotifier struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewSMTPNotifier creates a notifier for the configured relay.
func NewSMTPNotifier(cfg config.MailConfig, logger *zap.Logger) *SMTPNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPNotifier{cfg: cfg, logger: logger}
}

// Send delivers message as a plain-text email.
func (n *SMTPNotifier) Send(ctx context.Context, message usecase.Message) error {
	msg := gomail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(message.To); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(message.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, message.Body)

	client, err := gomail.NewClient(n.cfg.Host, n.clientOptions()...)
	if err != nil {
		return fmt.Errorf("mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	n.logger.Info("mail sent", zap.String("to", message.To), zap.String("subject", message.Subject))
	return nil
}

func (n *SMTPNotifier) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(n.cfg.Port),
		gomail.WithTimeout(n.cfg.Timeout),
	}
	if n.cfg.UseTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	if n.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(n.cfg.Username),
			gomail.WithPassword(n.cfg.Password),
		)
	}
	return opts
}

// LogNotifier writes messages to the log instead of sending them. Config only
// accepts it in development, where the verification link is copied by hand.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, message usecase.Message) error {
	n.logger.Info("mail (log driver)",
		zap.String("to", message.To),
		zap.String("subject", message.Subject),
		zap.String("body", message.Body))
	return nil
}

// New picks the notifier for the configured driver.
func New(cfg config.MailConfig, logger *zap.Logger) (usecase.Notifier, error) {
	switch cfg.Driver {
	case config.MailDriverSMTP:
		if cfg.Host == "" || cfg.From == "" {
			return nil, fmt.Errorf("mail: smtp driver requires MAIL_HOST and MAIL_FROM")
		}
		return NewSMTPNotifier(cfg, logger), nil
	case config.MailDriverLog:
		return NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("mail: unknown driver %q", cfg.Driver)
	}
}
