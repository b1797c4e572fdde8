package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/playverse/contest-system/config"
	"github.com/playverse/contest-system/models"
)

const resultsEmailTemplate = `
<h2>Results declared: {{.Contest.Name}}</h2>
<p>{{.Contest.Game}}{{if .Contest.Map}} — {{.Contest.Map}}{{end}}, prize pool {{.Contest.PrizePool}}</p>
<table border="1" cellpadding="4">
	<tr><th>Rank</th><th>Team</th><th>Players</th><th>Prize</th></tr>
	{{range .Declaration.Winners}}
	<tr>
		<td>{{.Rank}}</td>
		<td>{{.TeamID}}</td>
		<td>{{range $i, $p := .Players}}{{if $i}}, {{end}}{{$p.Username}}{{end}}</td>
		<td>{{.Prize}}</td>
	</tr>
	{{end}}
</table>
`

// EmailNotifier отправляет сводку объявленных результатов на адреса из
// конфигурации. Реализует ResultNotifier.
type EmailNotifier struct {
	cfg  *config.Config
	tmpl *template.Template
}

func NewEmailNotifier(cfg *config.Config) (*EmailNotifier, error) {
	tmpl, err := template.New("results").Parse(resultsEmailTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results email template: %w", err)
	}
	return &EmailNotifier{cfg: cfg, tmpl: tmpl}, nil
}

func (n *EmailNotifier) SendResultsDeclared(contest *models.Contest, declaration *models.Declaration) error {
	if len(n.cfg.NotifyEmails) == 0 {
		return nil
	}

	var body bytes.Buffer
	err := n.tmpl.Execute(&body, map[string]interface{}{
		"Contest":     contest,
		"Declaration": declaration,
	})
	if err != nil {
		return fmt.Errorf("failed to render results email: %w", err)
	}

	subject := fmt.Sprintf("Results declared: %s", contest.Name)
	return n.send(n.cfg.NotifyEmails, subject, body.String())
}

func (n *EmailNotifier) send(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", n.cfg.SMTPUser, n.cfg.SMTPPass, n.cfg.SMTPHost)

	msg := []byte("To: " + strings.Join(to, ", ") + "\r\n" +
		"From: " + n.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		ServerName: n.cfg.SMTPHost,
	}

	var client *smtp.Client
	if n.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("smtp tls dial failed: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, n.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("failed to create smtp client: %w", err)
		}
	} else {
		// STARTTLS (обычно порт 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial failed: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("smtp starttls failed: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth failed: %w", err)
	}
	if err := client.Mail(n.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("smtp mail command failed: %w", err)
	}
	for _, recipient := range to {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("smtp rcpt command failed for %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data command failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	return w.Close()
}
