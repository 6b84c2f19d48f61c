package mailer

import (
	"fmt"
	"log"
	"strconv"

	"gopkg.in/gomail.v2"
)

// Mailer delivers transactional mail to users
type Mailer interface {
	SendVerificationCode(to, code string) error
	SendPasswordResetCode(to, code string) error
}

// SMTPMailer implements Mailer over plain SMTP
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(host, port, username, password, from string) (*SMTPMailer, error) {
	if host == "" {
		return nil, fmt.Errorf("SMTP host not provided")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP port %q: %w", port, err)
	}

	return &SMTPMailer{
		dialer: gomail.NewDialer(host, portNum, username, password),
		from:   from,
	}, nil
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// SendVerificationCode mails the account activation code
func (m *SMTPMailer) SendVerificationCode(to, code string) error {
	body := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code)
	return m.send(to, "Verify your email", body)
}

// SendPasswordResetCode mails the password reset code
func (m *SMTPMailer) SendPasswordResetCode(to, code string) error {
	body := fmt.Sprintf("Your password reset code is %s. It expires in 10 minutes.", code)
	return m.send(to, "Reset your password", body)
}

// LogMailer writes mail to the log instead of sending it. Used in development
// when no SMTP host is configured.
type LogMailer struct{}

// SendVerificationCode logs the activation code
func (LogMailer) SendVerificationCode(to, code string) error {
	log.Printf("mailer (log only): verification code %s for %s", code, to)
	return nil
}

// SendPasswordResetCode logs the reset code
func (LogMailer) SendPasswordResetCode(to, code string) error {
	log.Printf("mailer (log only): password reset code %s for %s", code, to)
	return nil
}
