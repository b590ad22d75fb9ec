package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Message is a fully addressed plain-text email.
type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	Text     string
}

// Sender delivers a message through a resolved provider. Implementations must
// not retry; failures surface to the caller as-is.
type Sender interface {
	Send(ctx context.Context, msg Message, provider Provider) error
}

// SMTPConfig is one outbound SMTP account.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool
}

// SMTPSender sends mail over SMTP with one account per provider. The account
// table is fixed at construction (no dynamic lookup) and safe for concurrent
// use; a fresh client is dialed per send.
type SMTPSender struct {
	accounts map[Provider]SMTPConfig
}

// NewSMTPSender copies accounts into a sender. Every account needs a host.
func NewSMTPSender(accounts map[Provider]SMTPConfig) (*SMTPSender, error) {
	if len(accounts) == 0 {
		return nil, errors.New("at least one smtp account required")
	}

	copied := make(map[Provider]SMTPConfig, len(accounts))
	for provider, account := range accounts {
		if account.Host == "" {
			return nil, fmt.Errorf("smtp account for provider %q has no host", provider)
		}
		copied[provider] = account
	}

	return &SMTPSender{accounts: copied}, nil
}

// Send delivers msg through the SMTP account registered for provider.
func (s *SMTPSender) Send(ctx context.Context, msg Message, provider Provider) error {
	account, ok := s.accounts[provider]
	if !ok {
		return fmt.Errorf("no smtp account registered for provider %q", provider)
	}

	m := mail.NewMsg()

	if msg.FromName != "" {
		if err := m.FromFormat(msg.FromName, msg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := m.From(msg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)

	opts := []mail.Option{
		mail.WithPort(account.Port),
	}

	if account.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Implicit TLS on 465, STARTTLS everywhere else.
		if account.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if account.Username != "" && account.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(account.Username),
			mail.WithPassword(account.Password),
		)
	}

	client, err := mail.NewClient(account.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
