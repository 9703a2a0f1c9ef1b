package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// TemplateKind selects the outbound message template. The engine never
// formats message bodies beyond the confirmation link; rendering belongs to
// the notifier.
type TemplateKind string

const (
	TemplateSurveyInvite         TemplateKind = "survey_invite"
	TemplateObligationReminder   TemplateKind = "obligation_reminder"
	TemplateRecurringRunDispatch TemplateKind = "recurring_run_dispatch"
)

// Notifier delivers a single message to a single address. Implementations
// report failure through the returned error; the engine records the outcome
// per recipient and never retries automatically.
type Notifier interface {
	Send(recipientEmail string, kind TemplateKind, payload map[string]string) error
}

// SMTPNotifier sends HTML mail over plain SMTP (Gmail-style submission on
// port 587).
type SMTPNotifier struct {
	host     string
	port     string
	from     string
	password string
}

// NewSMTPNotifier reads SMTP settings from the environment.
func NewSMTPNotifier() (*SMTPNotifier, error) {
	n := &SMTPNotifier{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		from:     os.Getenv("SMTP_FROM"),
		password: os.Getenv("SMTP_PASSWORD"),
	}
	if n.host == "" || n.port == "" || n.from == "" {
		return nil, fmt.Errorf("missing required SMTP configuration environment variables")
	}
	return n, nil
}

func (n *SMTPNotifier) Send(recipientEmail string, kind TemplateKind, payload map[string]string) error {
	subject, body := renderTemplate(kind, payload)

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + n.from + "\r\n" +
		"To: " + recipientEmail + "\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
		body)

	auth := smtp.PlainAuth("", n.from, n.password, n.host)
	if err := smtp.SendMail(n.host+":"+n.port, auth, n.from, []string{recipientEmail}, message); err != nil {
		log.Printf("[SMTPNotifier] Error sending %s mail to %s: %v", kind, recipientEmail, err)
		return err
	}
	log.Printf("[SMTPNotifier] %s mail sent to %s", kind, recipientEmail)
	return nil
}

func renderTemplate(kind TemplateKind, payload map[string]string) (string, string) {
	switch kind {
	case TemplateSurveyInvite, TemplateRecurringRunDispatch:
		subject := fmt.Sprintf("Compliance Survey: %s", payload["title"])
		body := fmt.Sprintf(`
	<html>
	<body>
		<h2>Compliance Survey</h2>
		<p>Dear %s,</p>
		<p>You have been asked to complete the compliance survey <strong>%s</strong>.</p>
		<p><a href="%s">Complete the survey</a> before %s.</p>
		<p>Best regards,<br>Legal Operations</p>
	</body>
	</html>
`, payload["name"], payload["title"], payload["link"], payload["due_date"])
		return subject, body
	case TemplateObligationReminder:
		subject := fmt.Sprintf("Compliance Reminder: %s", payload["obligation"])
		body := fmt.Sprintf(`
	<html>
	<body>
		<h2>Compliance Reminder</h2>
		<p>Dear %s,</p>
		<p>The obligation <strong>%s</strong> is due on %s (%s).</p>
		<p><a href="%s">Confirm completion</a> once it has been handled.</p>
		<p>Best regards,<br>Legal Operations</p>
	</body>
	</html>
`, payload["name"], payload["obligation"], payload["due_date"], payload["stage"], payload["link"])
		return subject, body
	}
	return "Compliance Notification", "<html><body><p>See the compliance portal for details.</p></body></html>"
}

// newToken returns a cryptographically random, URL-safe, single-use token.
// 32 bytes gives 256 bits of entropy, enough that the unique index on token
// columns will never see a collision in practice.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func surveyLink(baseURL, token string) string {
	return fmt.Sprintf("%s/compliance-survey/%s", baseURL, token)
}

func confirmLink(baseURL, token string) string {
	return fmt.Sprintf("%s/compliance-confirm/%s", baseURL, token)
}
