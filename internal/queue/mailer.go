package queue

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/sirupsen/logrus"

	"github.com/lingora/lingora-backend/internal/logger"
)

var mailTemplates = template.Must(template.New("mail").Option("missingkey=zero").Parse(`
{{define "verify_email"}}Welkom bij Lingora, {{.business_name}}!
Bevestig uw e-mailadres: {{.verify_url}}{{end}}
{{define "password_reset"}}U heeft een nieuw wachtwoord aangevraagd.
Stel het opnieuw in via {{.reset_url}} (geldig tot {{.expires_at}}).{{end}}
{{define "contact_message"}}Nieuw bericht van {{.sender_name}} <{{.sender_email}}>
Voorkeurstaal: {{.preferred_language}}
Onderwerp: {{.subject}}

{{.message}}{{end}}
{{define "contact_auto_reply"}}Beste {{.sender_name}},
Uw bericht aan {{.business_name}} is verzonden. U ontvangt zo snel mogelijk een reactie.{{end}}
{{define "ticket_created"}}Nieuw ticket {{.ticket_number}}: {{.subject}}
Prioriteit: {{.priority}}, categorie: {{.category}}{{end}}
{{define "ticket_response"}}Nieuwe reactie op ticket {{.ticket_number}}:

{{.message}}{{end}}
{{define "ticket_status"}}Status van ticket {{.ticket_number}} gewijzigd van {{.old_status}} naar {{.new_status}}.{{end}}
`))

// Render формирует текст письма по имени шаблона события.
func Render(event MailEvent) (string, error) {
	name := event.Template
	if name == "" {
		name = event.Type
	}
	if mailTemplates.Lookup(name) == nil {
		return "", fmt.Errorf("queue: неизвестный шаблон %q", name)
	}
	var buf bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&buf, name, event.Data); err != nil {
		return "", fmt.Errorf("queue: шаблон %q %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// LogMailer пишет готовое письмо в лог вместо отправки по SMTP.
type LogMailer struct {
	log *logrus.Entry
}

// NewLogMailer создаёт Mailer поверх общего логгера.
func NewLogMailer() *LogMailer {
	return &LogMailer{log: logger.Component("mailer")}
}

// Send реализует Mailer.
func (m *LogMailer) Send(_ context.Context, event MailEvent) error {
	body, err := Render(event)
	if err != nil {
		return err
	}
	m.log.WithFields(logrus.Fields{
		"type":    event.Type,
		"to":      strings.Join(event.To, ","),
		"bcc":     strings.Join(event.Bcc, ","),
		"subject": event.Subject,
	}).Info(body)
	return nil
}
