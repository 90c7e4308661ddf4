package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	htmltemplate "html/template"
	"net/smtp"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"ticketing/internal/shared/config"
	"ticketing/pkg/logger"
)

// Mailer delivers one rendered message to one recipient
type Mailer interface {
	Send(ctx context.Context, to Recipient, subject, htmlBody, textBody string) error
}

// NewMailer picks SMTP when a host is configured and falls back to logging
func NewMailer(cfg config.EmailConfig) Mailer {
	if cfg.SMTPHost == "" {
		return NewLogMailer()
	}
	return NewSMTPMailer(cfg)
}

type SMTPMailer struct {
	cfg config.EmailConfig
	log *logger.Logger
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: logger.GetDefault()}
}

func (m *SMTPMailer) Send(ctx context.Context, to Recipient, subject, htmlBody, textBody string) error {
	message := buildMessage(m.cfg.FromName, m.cfg.FromEmail, to, subject, htmlBody, textBody, time.Now())

	var auth smtp.Auth
	if m.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)

	done := make(chan error, 1)
	go func() { done <- m.sendWithSTARTTLS(addr, auth, to.Email, message) }()

	timeout := m.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
	case <-time.After(timeout):
		return fmt.Errorf("failed to send email: timed out after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	m.log.InfoContext(ctx, "Email sent", "to", to.Email, "subject", subject)
	return nil
}

func (m *SMTPMailer) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err = client.StartTLS(&tls.Config{ServerName: m.cfg.SMTPHost}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}
	if err = client.Mail(m.cfg.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

func buildMessage(fromName, fromEmail string, to Recipient, subject, htmlBody, textBody string, now time.Time) []byte {
	boundary := "boundary_" + strconv.FormatInt(now.UnixNano(), 10)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, fromEmail)
	if to.Name != "" {
		fmt.Fprintf(&b, "To: %s <%s>\r\n", to.Name, to.Email)
	} else {
		fmt.Fprintf(&b, "To: %s\r\n", to.Email)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	if textBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, textBody)
	}
	if htmlBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, htmlBody)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

// LogMailer only records what would have been sent
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer() *LogMailer {
	return &LogMailer{log: logger.GetDefault()}
}

func (m *LogMailer) Send(ctx context.Context, to Recipient, subject, _, textBody string) error {
	m.log.InfoContext(ctx, "Email not sent, SMTP disabled",
		"to", to.Email,
		"subject", subject,
		"body_bytes", len(textBody),
	)
	return nil
}

type emailData struct {
	Name          string
	EventName     string
	EventStart    string
	ZoneName      string
	ReservationID string
	TicketCount   int
}

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.New("lifecycle").Parse(`
{{define "ticket.issued"}}<h2>Your tickets are confirmed</h2>
<p>Hi {{.Name}},</p>
<p>Reservation <strong>{{.ReservationID}}</strong> holds {{.TicketCount}} ticket(s) for <strong>{{.EventName}}</strong> ({{.ZoneName}}) on {{.EventStart}}.</p>
<p>Show the QR code of each ticket at the entrance.</p>{{end}}
{{define "ticket.validated"}}<h2>Welcome to {{.EventName}}</h2>
<p>Hi {{.Name}}, your ticket has just been scanned. Enjoy the event!</p>{{end}}
{{define "ticket.cancelled"}}<h2>Ticket cancelled</h2>
<p>Hi {{.Name}}, a ticket of reservation {{.ReservationID}} for <strong>{{.EventName}}</strong> has been cancelled by the organizer.</p>{{end}}
`))

	textTemplates = texttemplate.Must(texttemplate.New("lifecycle").Parse(`
{{define "ticket.issued"}}Hi {{.Name}},

Reservation {{.ReservationID}} holds {{.TicketCount}} ticket(s) for {{.EventName}} ({{.ZoneName}}) on {{.EventStart}}.
Show the QR code of each ticket at the entrance.{{end}}
{{define "ticket.validated"}}Hi {{.Name}}, your ticket for {{.EventName}} has just been scanned. Enjoy the event!{{end}}
{{define "ticket.cancelled"}}Hi {{.Name}}, a ticket of reservation {{.ReservationID}} for {{.EventName}} has been cancelled by the organizer.{{end}}
`))
)

// RenderEmail renders the html and text bodies of a lifecycle message for one recipient
func RenderEmail(event *TicketLifecycleEvent, to Recipient) (string, string, error) {
	data := emailData{
		Name:          to.Name,
		EventName:     event.EventName,
		EventStart:    event.EventStart.Format("Mon 02 Jan 2006 15:04 MST"),
		ZoneName:      event.ZoneName,
		ReservationID: event.ReservationID,
		TicketCount:   len(event.TicketIDs),
	}
	if data.Name == "" {
		data.Name = "there"
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&htmlBuf, string(event.Type), data); err != nil {
		return "", "", fmt.Errorf("failed to render %s html: %w", event.Type, err)
	}
	if err := textTemplates.ExecuteTemplate(&textBuf, string(event.Type), data); err != nil {
		return "", "", fmt.Errorf("failed to render %s text: %w", event.Type, err)
	}
	return strings.TrimSpace(htmlBuf.String()), strings.TrimSpace(textBuf.String()), nil
}
