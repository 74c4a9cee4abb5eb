// Package mail renders and delivers provider emails.
package mail

import (
	"errors"
	"fmt"
	"mime"
	netmail "net/mail"
	"net/smtp"
	"strings"
)

const defaultFrom = "Equipe GoBarber <noreply@gobarber.com>"

var ErrInvalidAddress = errors.New("invalid email address")

type Sender interface {
	Send(to *netmail.Address, subject, body string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends plain-text mail. Auth is used only when a username is set.
type SMTPSender struct {
	addr string
	from *netmail.Address
	auth smtp.Auth
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	raw := strings.TrimSpace(cfg.From)
	if raw == "" {
		raw = defaultFrom
	}
	from, err := netmail.ParseAddress(raw)
	if err != nil {
		return nil, fmt.Errorf("mail from %q: %w", raw, err)
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", strings.TrimSpace(cfg.Host), cfg.Port),
		from: from,
		auth: auth,
	}, nil
}

func (s *SMTPSender) Send(to *netmail.Address, subject, body string) error {
	msg, err := buildMessage(s.from, to, subject, body)
	if err != nil {
		return err
	}
	return smtp.SendMail(s.addr, s.auth, s.from.Address, []string{to.Address}, []byte(msg))
}

// buildMessage renders headers with RFC 2047 encoded words, so display names
// and subjects can carry non-ASCII text but never a line break.
func buildMessage(from, to *netmail.Address, subject, body string) (string, error) {
	for _, a := range []*netmail.Address{from, to} {
		if err := checkAddress(a); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\nContent-Transfer-Encoding: 8bit\r\n\r\n%s\r\n",
		from.String(),
		to.String(),
		mime.QEncoding.Encode("utf-8", subject),
		strings.ReplaceAll(body, "\n", "\r\n"),
	), nil
}

// checkAddress accepts only a bare addr-spec in a.Address; the display name
// is encoded by Address.String.
func checkAddress(a *netmail.Address) error {
	if a == nil {
		return ErrInvalidAddress
	}
	parsed, err := netmail.ParseAddress(a.Address)
	if err != nil || parsed.Address != a.Address {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, a.Address)
	}
	return nil
}
