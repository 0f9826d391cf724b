// file: service/mailer.go

package service

import (
	"fmt"
	"go-auth-api/config"
	"go-auth-api/logger"

	"gopkg.in/gomail.v2"
)

// IMailer defines the contract for delivering token links to users.
// Delivery is fire-and-forget from the protocol's perspective: failures are
// logged by the implementation and never surfaced as protocol errors.
type IMailer interface {
	SendVerifyEmail(to, token string)
	SendResetEmail(to, token string)
}

// Mailer implements IMailer over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer creates a Mailer from the loaded AppConfig.
func NewMailer() *Mailer {
	cfg := config.AppConfig.Email
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *Mailer) send(to, subject, body string) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	// The caller never waits on delivery.
	go func() {
		if err := m.dialer.DialAndSend(msg); err != nil {
			logger.Log.WithError(err).WithField("subject", subject).Error("Failed to send email")
			return
		}
		logger.Log.WithField("subject", subject).Info("Email sent")
	}()
}

// SendVerifyEmail mails the email-verification link.
func (m *Mailer) SendVerifyEmail(to, token string) {
	verifyLink := fmt.Sprintf("%s/api/v1/verify-email/%s", config.AppConfig.Server.URL, token)
	body := fmt.Sprintf(`Please click <a href="%s">here</a> to verify your email.`, verifyLink)
	m.send(to, "Email verification", body)
}

// SendResetEmail mails the password-reset link.
func (m *Mailer) SendResetEmail(to, token string) {
	resetLink := fmt.Sprintf("%s/api/v1/reset-password/%s", config.AppConfig.Server.URL, token)
	body := fmt.Sprintf(`Please click <a href="%s">here</a> to reset your password.`, resetLink)
	m.send(to, "Password reset", body)
}
