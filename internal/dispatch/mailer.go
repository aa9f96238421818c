package dispatch

import (
	"bytes"
	"context"

	"github.com/wneessen/go-mail"
)

// DeliveryError wraps an email transport failure (auth, network). The
// error is surfaced to the caller; there is no automatic retry.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return "email delivery failed: " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Message is a composed report email ready for delivery.
type Message struct {
	Sender     string
	Recipients []string
	Subject    string
	Body       string
	Attachment []byte
	Filename   string
}

// Sender delivers composed messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer sends report emails over SMTP with STARTTLS.
type Mailer struct {
	host     string
	port     int
	username string
	password string
}

// NewMailer creates a mailer for the given SMTP endpoint.
func NewMailer(host string, port int, username, password string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

// Send delivers the message. Transport failures come back as
// *DeliveryError.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	email := mail.NewMsg()
	if err := email.From(msg.Sender); err != nil {
		return &DeliveryError{Err: err}
	}
	if err := email.To(msg.Recipients...); err != nil {
		return &DeliveryError{Err: err}
	}
	email.Subject(msg.Subject)
	email.SetBodyString(mail.TypeTextPlain, msg.Body)

	if len(msg.Attachment) > 0 {
		if err := email.AttachReader(msg.Filename, bytes.NewReader(msg.Attachment)); err != nil {
			return &DeliveryError{Err: err}
		}
	}

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return &DeliveryError{Err: err}
	}

	if err := client.DialAndSendWithContext(ctx, email); err != nil {
		return &DeliveryError{Err: err}
	}
	return nil
}
