// Package contact delivers the portfolio contact form by email.
package contact

import (
	"fmt"
	"log"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotConfigured = errors.New("SMTP credentials not configured")
	ErrInvalidInput  = errors.New("name, a valid email and a message are required")
)

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Mailer struct {
	Host     string
	Port     string
	User     string
	Password string
	To       string

	send SendFunc
}

// Message is one contact form submission.
type Message struct {
	Name  string
	Email string
	Body  string
}

func NewMailer(host, port, user, password, to string) *Mailer {
	if to == "" {
		to = user
	}
	return &Mailer{Host: host, Port: port, User: user, Password: password, To: to, send: smtp.SendMail}
}

// WithSender swaps the transport, for tests.
func (m *Mailer) WithSender(send SendFunc) *Mailer {
	m.send = send
	return m
}

func (m *Mailer) Configured() bool {
	return m.User != "" && m.Password != "" && m.To != ""
}

func (msg Message) Validate() error {
	if strings.TrimSpace(msg.Name) == "" || strings.TrimSpace(msg.Body) == "" {
		return ErrInvalidInput
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return ErrInvalidInput
	}
	return nil
}

// Compose renders the RFC 822 message sent for msg.
func (m *Mailer) Compose(msg Message) []byte {
	subject := fmt.Sprintf("Portfolio Contact: %s", oneLine(msg.Name))
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, msg.Name, msg.Email, msg.Body)

	return []byte("To: " + m.To + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + m.User + "\r\n" +
		"Reply-To: " + oneLine(msg.Email) + "\r\n" +
		"\r\n" +
		body + "\r\n")
}

func (m *Mailer) Send(msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if !m.Configured() {
		return ErrNotConfigured
	}

	auth := smtp.PlainAuth("", m.User, m.Password, m.Host)
	err := m.send(m.Host+":"+m.Port, auth, m.User, []string{m.To}, m.Compose(msg))
	if err != nil {
		log.Printf("Error sending email: %v", err)
		return errors.Wrap(err, "failed to send contact email")
	}

	log.Printf("Email sent successfully from %s", oneLine(msg.Name))
	return nil
}

// oneLine keeps user input from injecting extra headers.
func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
