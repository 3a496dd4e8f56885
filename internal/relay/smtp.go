package relay

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	// To receives every submission.
	To string
}

// SMTPRelay emails submissions to the support address.
type SMTPRelay struct {
	config SMTPConfig
	server string
	auth   smtp.Auth
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPRelay(config SMTPConfig) *SMTPRelay {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &SMTPRelay{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

// IsConfigured returns true if email is configured
func (r *SMTPRelay) IsConfigured() bool {
	return r.config.Host != "" && r.config.Port != "" && r.config.From != "" && r.config.To != ""
}

func (r *SMTPRelay) Submit(ctx context.Context, s Submission) error {
	if !r.IsConfigured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.Name = headerSafe(s.Name)
	s.Email = headerSafe(s.Email)
	html, err := renderTemplate(submissionEmailTemplate, s)
	if err != nil {
		return fmt.Errorf("render submission template: %w", err)
	}
	msg := r.buildMessage(s, html)
	if err := r.send(r.server, r.auth, r.config.From, []string{r.config.To}, msg); err != nil {
		return fmt.Errorf("%w: send submission email: %w", ErrUnreachable, err)
	}
	return nil
}

func (r *SMTPRelay) buildMessage(s Submission, htmlBody string) []byte {
	from := r.config.From
	if r.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", r.config.FromName, r.config.From)
	}

	boundary := "boundary-activity-zone"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", r.config.To)
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Reply-To: %s\r\n", s.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", s.subject())
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "Name: %s\r\nEmail: %s\r\n\r\n%s\r\n", s.Name, s.Email, s.Message)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return msg.Bytes()
}

// headerSafe strips line breaks so user input cannot inject headers.
func headerSafe(value string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
}

func renderTemplate(tmpl string, data interface{}) (string, error) {
	t := template.Must(template.New("email").Parse(tmpl))
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const submissionEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #f8bbda; padding-bottom: 10px; margin-bottom: 20px; }
        .field { color: #666; font-size: 14px; }
        .message { white-space: pre-wrap; background: #f6f6f6; padding: 12px; border-radius: 4px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Animal Activity Zone</h1>
    </div>
    {{if eq .Kind "sample"}}
    <h2>Free sample request</h2>
    {{else}}
    <h2>New contact message</h2>
    {{end}}
    <p class="field"><strong>Name:</strong> {{.Name}}</p>
    <p class="field"><strong>Email:</strong> {{.Email}}</p>
    {{if .Message}}<div class="message">{{.Message}}</div>{{end}}
</body>
</html>`
