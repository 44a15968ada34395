package mailer

import (
	"bytes"
	"text/template"

	"github.com/rs/zerolog/log"
)

// Mailer is the outbound mail contract the workflow services consume. A
// false return means the message was not delivered; callers tally failures
// and carry on, they never abort a batch over one bad address.
type Mailer interface {
	Send(to, subject, tmplName string, vars map[string]any) bool
}

// Known template names.
const (
	TemplateMarkingDistributed = "marking_distributed"
	TemplateReportsReleased    = "reports_released"
)

var bodies = template.Must(template.New("mail").Parse(`
{{define "marking_distributed"}}Dear {{.MarkerName}},

You have been assigned to mark "{{.StudentName}}" ({{.Presentation}}) as {{.Role}}.
{{if .DueDate}}The marking is due by {{.DueDate}}.
{{end}}Open your marking form here:

  {{.FormURL}}

This link is personal to you; please do not forward it.{{end}}

{{define "reports_released"}}Dear {{.StudentName}},

Your marking reports are now available. Each link below downloads one report:
{{range .Links}}
  {{.}}
{{end}}
These links are personal to you; please do not forward them.{{end}}
`))

// consoleMailer renders messages and writes them to the log instead of an
// SMTP relay. It is the default in development and under test.
type consoleMailer struct {
	from string
}

func NewConsoleMailer(from string) Mailer {
	return &consoleMailer{from: from}
}

func (m *consoleMailer) Send(to, subject, tmplName string, vars map[string]any) bool {
	var body bytes.Buffer
	if err := bodies.ExecuteTemplate(&body, tmplName, vars); err != nil {
		log.Error().Err(err).Str("template", tmplName).Str("to", to).Msg("Mailer: template render failed")
		return false
	}
	log.Info().
		Str("from", m.from).
		Str("to", to).
		Str("subject", subject).
		Str("body", body.String()).
		Msg("Mail (console delivery)")
	return true
}
