package mail

import (
	"context"
	"errors"
	"log/slog"
	netmail "net/mail"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"gobarber/backend/internal/domain"
	"gobarber/backend/internal/notify"
	"gobarber/backend/internal/queue"
)

type fakeSender struct {
	sendFn func(to *netmail.Address, subject, body string) error
}

func (f *fakeSender) Send(to *netmail.Address, subject, body string) error {
	if f.sendFn == nil {
		panic("Send not configured")
	}
	return f.sendFn(to, subject, body)
}

func cancellationJob(t *testing.T) queue.Job {
	t.Helper()
	job, err := queue.NewJob(queue.KindCancellationMail, domain.CancellationJob{
		Appointment: domain.AppointmentSnapshot{
			ID:   uuid.MustParse("00000000-0000-0000-0000-000000000301"),
			Slot: time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
		},
		Provider: domain.Party{Name: "Ana", Email: "ana@example.com"},
		Client:   domain.Party{Name: "Bruno"},
	})
	if err != nil {
		t.Fatalf("NewJob error: %v", err)
	}
	return job
}

func TestCancellationHandler_SendsToProvider(t *testing.T) {
	var (
		to            *netmail.Address
		subject, body string
	)
	h := NewCancellationHandler(&fakeSender{
		sendFn: func(gotTo *netmail.Address, gotSubject, gotBody string) error {
			to, subject, body = gotTo, gotSubject, gotBody
			return nil
		},
	}, notify.Formatter{}, slog.Default())

	if err := h.Handle(context.Background(), cancellationJob(t)); err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	if to == nil || to.Name != "Ana" || to.Address != "ana@example.com" {
		t.Fatalf("to = %+v", to)
	}
	if subject != CancellationSubject {
		t.Fatalf("subject = %q", subject)
	}
	for _, want := range []string{"Olá, Ana", "Cliente: Bruno", "10 de março de 2025, às 14:00h"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestCancellationHandler_ReturnsSendErrorForRetry(t *testing.T) {
	boom := errors.New("connection refused")
	h := NewCancellationHandler(&fakeSender{
		sendFn: func(to *netmail.Address, subject, body string) error { return boom },
	}, notify.Formatter{}, slog.Default())

	if err := h.Handle(context.Background(), cancellationJob(t)); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestCancellationHandler_RejectsBadProviderAddress(t *testing.T) {
	job, err := queue.NewJob(queue.KindCancellationMail, domain.CancellationJob{
		Provider: domain.Party{Name: "Ana", Email: "ana@example.com\r\nBcc: evil@example.com"},
		Client:   domain.Party{Name: "Bruno"},
	})
	if err != nil {
		t.Fatalf("NewJob error: %v", err)
	}
	h := NewCancellationHandler(&fakeSender{}, notify.Formatter{}, slog.Default())

	if err := h.Handle(context.Background(), job); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidAddress)
	}
}

var from = &netmail.Address{Name: "Equipe GoBarber", Address: "noreply@gobarber.com"}

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage(from, &netmail.Address{Name: "Ana", Address: "ana@example.com"}, "Agendamento cancelado", "a\nb")
	if err != nil {
		t.Fatalf("buildMessage error: %v", err)
	}
	if !strings.HasPrefix(msg, "From: \"Equipe GoBarber\" <noreply@gobarber.com>\r\nTo: \"Ana\" <ana@example.com>\r\nSubject: Agendamento cancelado\r\n") {
		t.Fatalf("headers = %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\na\r\nb\r\n") {
		t.Fatalf("body = %q", msg)
	}
}

func TestBuildMessage_NamesCannotInjectHeaders(t *testing.T) {
	to := &netmail.Address{Name: "Ana\r\nBcc: evil@example.com", Address: "ana@example.com"}

	msg, err := buildMessage(from, to, "Aviso\r\nBcc: evil@example.com", "corpo")
	if err != nil {
		t.Fatalf("buildMessage error: %v", err)
	}
	headers, _, _ := strings.Cut(msg, "\r\n\r\n")
	for _, line := range strings.Split(headers, "\r\n") {
		if strings.HasPrefix(strings.ToLower(line), "bcc:") {
			t.Fatalf("injected header %q in %q", line, headers)
		}
	}
	if n := strings.Count(headers, "\r\n"); n != 5 {
		t.Fatalf("header lines = %d, want 6:\n%s", n+1, headers)
	}
}

func TestBuildMessage_EncodesNonASCII(t *testing.T) {
	to := &netmail.Address{Name: "João", Address: "joao@example.com"}

	msg, err := buildMessage(from, to, "Horário cancelado", "corpo")
	if err != nil {
		t.Fatalf("buildMessage error: %v", err)
	}
	if !strings.Contains(msg, "\r\nTo: =?utf-8?q?Jo=C3=A3o?= <joao@example.com>\r\n") {
		t.Fatalf("To header not encoded: %q", msg)
	}
	if !strings.Contains(msg, "\r\nSubject: =?utf-8?q?Hor=C3=A1rio_cancelado?=\r\n") {
		t.Fatalf("Subject header not encoded: %q", msg)
	}
}

func TestBuildMessage_RejectsBadAddress(t *testing.T) {
	for _, addr := range []string{"", "ana@example.com\r\nBcc: evil@example.com", "Ana <ana@example.com>"} {
		_, err := buildMessage(from, &netmail.Address{Address: addr}, "s", "b")
		if !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("address %q: err = %v, want %v", addr, err, ErrInvalidAddress)
		}
	}
}

func TestNewSMTPSender_ParsesFrom(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1025})
	if err != nil {
		t.Fatalf("NewSMTPSender error: %v", err)
	}
	if s.from.Address != "noreply@gobarber.com" || s.addr != "127.0.0.1:1025" {
		t.Fatalf("sender = %+v", s)
	}
	if _, err := NewSMTPSender(SMTPConfig{From: "not an address"}); err == nil {
		t.Fatalf("expected error for bad from address")
	}
}
