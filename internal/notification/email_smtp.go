package notification

import (
	"context"
	"fmt"
	"time"

	mail "github.com/xhit/go-simple-mail/v2"
)

// SMTPConfig holds the connection settings for the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// smtpEmailSender is the concrete implementation for sending emails via SMTP.
type smtpEmailSender struct {
	server *mail.SMTPServer
	from   string
}

// NewSMTPEmailSender creates a new sender that uses an SMTP server. Port 465
// uses implicit TLS, any other port negotiates STARTTLS.
func NewSMTPEmailSender(cfg SMTPConfig) EmailSender {
	server := mail.NewSMTPClient()
	server.Host = cfg.Host
	server.Port = cfg.Port
	server.Username = cfg.Username
	server.Password = cfg.Password
	server.Encryption = mail.EncryptionSTARTTLS
	if cfg.Port == 465 {
		server.Encryption = mail.EncryptionSSLTLS
	}
	server.KeepAlive = false
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 10 * time.Second

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &smtpEmailSender{server: server, from: from}
}

func (s *smtpEmailSender) Send(ctx context.Context, msg Email, messageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := s.server.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	email := mail.NewMSG()
	email.SetFrom(s.from).AddTo(msg.To).SetSubject(msg.Subject)
	email.AddHeader("Message-ID", messageID)
	email.SetBody(mail.TextHTML, msg.HTMLBody)
	if msg.TextBody != "" {
		email.AddAlternative(mail.TextPlain, msg.TextBody)
	}
	if email.Error != nil {
		return fmt.Errorf("failed to build email: %w", email.Error)
	}

	if err = email.Send(client); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
