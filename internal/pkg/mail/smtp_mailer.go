// Package mail sends the account emails (activation and password reset).
package mail

import (
	"fmt"
	"html"
	"net/smtp"

	"github.com/gofiber/fiber/v2/log"

	"github.com/trendhack/dashboard/internal/pkg/env"
)

// Mailer sends one HTML email.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends emails via SMTP
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

func NewSMTPMailerFromEnv() *SMTPMailer {
	m := &SMTPMailer{
		Host:     env.GetEnv("SMTP_HOST", ""),
		Port:     env.GetEnv("SMTP_PORT", "587"),
		Username: env.GetEnv("SMTP_USERNAME", ""),
		Password: env.GetEnv("SMTP_PASSWORD", ""),
		Sender:   env.GetEnv("SMTP_SENDER", ""),
	}
	if m.Sender == "" {
		m.Sender = "no-reply@localhost"
		log.Warnf("[Mail] SMTP_SENDER not set, using default sender: %s", m.Sender)
	}
	return m
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	var auth smtp.Auth
	if m.Username != "" && m.Password != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	addr := fmt.Sprintf("%s:%s", m.Host, m.Port)
	if err := smtp.SendMail(addr, auth, m.Sender, []string{to}, BuildMessage(m.Sender, to, subject, body)); err != nil {
		log.Errorf("[Mail] SMTP send error: %v", err)
		return err
	}
	log.Infof("[Mail] Email sent to %s via %s", to, addr)
	return nil
}

// BuildMessage renders the RFC 5322 message with an HTML body.
func BuildMessage(sender, to, subject, body string) []byte {
	return []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)
}

func ActivationBody(name, link string) string {
	return fmt.Sprintf(
		`<p>Olá %s,</p><p>Confirme seu cadastro na Trend Hack clicando no link abaixo:</p><p><a href="%s">Ativar minha conta</a></p>`,
		html.EscapeString(name), html.EscapeString(link),
	)
}

func ResetBody(name, code string) string {
	return fmt.Sprintf(
		`<p>Olá %s,</p><p>Use o código abaixo para redefinir sua senha. Ele expira em 24 horas.</p><p><strong>%s</strong></p>`,
		html.EscapeString(name), html.EscapeString(code),
	)
}
