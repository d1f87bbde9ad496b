package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/domodwyer/mailyak/v3"

	"ms-boxoffice/internal/config"
)

// Mailer sends buyer-facing mail over SMTP.
type Mailer struct {
	cfg config.EmailConfig
}

func New(cfg config.EmailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendConfirmation emails the buyer their admission codes for a fulfilled
// session. The session id is included for support correlation.
func (m *Mailer) SendConfirmation(to, eventTitle string, codes []string, sessionID string) error {
	if m.cfg.SMTPHost == "" || m.cfg.SMTPUsername == "" {
		return fmt.Errorf("smtp is not configured")
	}

	addr := fmt.Sprintf("%s:%s", m.cfg.SMTPHost, m.cfg.SMTPPort)
	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)

	mail := mailyak.New(addr, auth)
	mail.From(m.cfg.FromAddress)
	mail.To(to)
	mail.Subject(fmt.Sprintf("Tickets confirmed - %s", eventTitle))

	var items strings.Builder
	for _, code := range codes {
		fmt.Fprintf(&items, `<li style="margin: 6px 0;"><code style="font-size: 16px; letter-spacing: 2px;">%s</code></li>`, code)
	}

	fmt.Fprintf(mail.HTML(), `
		<div style="font-family: ui-sans-serif, system-ui; max-width: 640px; margin: 0 auto; padding: 24px;">
			<h1 style="margin: 0 0 12px; color: #0D9488;">Purchase confirmed</h1>
			<p style="margin: 0 0 18px; color: #134E4A;">Event: <strong>%s</strong></p>
			<p style="margin: 0 0 12px;">Your access codes (present one per person):</p>
			<ul style="padding-left: 18px; margin: 0 0 18px;">%s</ul>
			<p style="font-size: 12px; color: #64748b; margin: 0;">Session: %s</p>
		</div>
	`, eventTitle, items.String(), sessionID)

	fmt.Fprintf(mail.Plain(), "Purchase confirmed for %s.\nAccess codes: %s\nSession: %s\n",
		eventTitle, strings.Join(codes, ", "), sessionID)

	return mail.Send()
}
