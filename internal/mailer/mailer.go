// Package mailer sends transactional mail over SMTP. When no SMTP host is
// configured the message is logged instead of sent, so local development
// never needs a mail server.
package mailer

import (
	"log"
	"regexp"

	"backend/internal/config"

	gomail "gopkg.in/gomail.v2"
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

// Message is an outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends messages through the configured SMTP transport.
type Mailer struct {
	cfg config.SMTPConfig
}

func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers the message, falling back to a plain-text body stripped
// from the HTML when none is given.
func (m *Mailer) Send(msg Message) error {
	if !m.cfg.Configured() {
		log.Printf("SMTP not configured, email to %s (%q) not sent", msg.To, msg.Subject)
		return nil
	}

	text := msg.Text
	if text == "" {
		text = tagRe.ReplaceAllString(msg.HTML, "")
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.cfg.From)
	mail.SetHeader("To", msg.To)
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/plain", text)
	if msg.HTML != "" {
		mail.AddAlternative("text/html", msg.HTML)
	}

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Password)
	return dialer.DialAndSend(mail)
}

// SendWelcome sends the account-created mail. Failures are logged and not
// surfaced: mail is a best-effort side effect.
func (m *Mailer) SendWelcome(email, name string) {
	err := m.Send(Message{
		To:      email,
		Subject: "Benvenuto in Evolvia",
		HTML: "<h1>Benvenuto in Evolvia!</h1>" +
			"<p>Ciao " + name + ",</p>" +
			"<p>Il tuo account è stato creato con successo.</p>" +
			"<p>Puoi ora accedere alla piattaforma e iniziare a gestire le tue comunicazioni TLC.</p>" +
			"<p>Saluti,<br>Team Evolvia</p>",
	})
	if err != nil {
		log.Println("Error sending welcome email:", err)
	}
}
