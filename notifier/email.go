package notifier

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gomail "gopkg.in/mail.v2"

	"streamfusion/catalog"
	"streamfusion/config"
	"streamfusion/events"
	"streamfusion/messaging"
	"streamfusion/storage"
)

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailConfig contains configuration for email notifications
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	From         string
	Recipients   []string
}

// ConfigFromApp builds the email configuration from the loaded config.
func ConfigFromApp(cfg *config.Config) EmailConfig {
	return EmailConfig{
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUser:     cfg.SMTPUser,
		SMTPPassword: cfg.SMTPPassword,
		From:         cfg.EmailFrom,
		Recipients:   cfg.EmailTo,
	}
}

// EmailNotifier sends the new content digest and inbox alerts to the
// site operators.
type EmailNotifier struct {
	from       string
	recipients []string
	sender     Sender
	digest     *template.Template
	logger     zerolog.Logger
	now        func() time.Time
}

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{"join": joinGenres}).Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>StreamFusion - Novedades</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; }
        h1 { color: #e50914; }
        h2 { color: #0071c5; margin-top: 30px; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        th { background-color: #f4f4f4; text-align: left; padding: 10px; }
        td { padding: 10px; border-bottom: 1px solid #ddd; }
        .movie { background-color: #fff3e0; }
        .series { background-color: #e3f2fd; }
        .footer { font-size: 12px; color: #666; margin-top: 50px; text-align: center; }
        .count { font-weight: bold; color: #e50914; }
    </style>
</head>
<body>
    <h1>StreamFusion - Novedades</h1>
    <p>Contenido agregado desde {{.Since}} hasta {{.Date}}.</p>
    <p>Total: <span class="count">{{.TotalCount}}</span></p>

    {{if .Movies}}
    <h2>Películas ({{len .Movies}})</h2>
    <table>
        <tr><th>Título</th><th>Estreno</th><th>Géneros</th><th>Valoración</th></tr>
        {{range .Movies}}
        <tr class="movie">
            <td>{{.Title}}</td>
            <td>{{if .ReleaseDate}}{{.ReleaseDate}}{{else}}-{{end}}</td>
            <td>{{join .Genres}}</td>
            <td>{{if .VoteAverage}}{{printf "%.1f" .VoteAverage}}/10{{else}}-{{end}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}

    {{if .Series}}
    <h2>Series ({{len .Series}})</h2>
    <table>
        <tr><th>Título</th><th>Temporadas</th><th>Géneros</th><th>Valoración</th></tr>
        {{range .Series}}
        <tr class="series">
            <td>{{.Title}}</td>
            <td>{{len .Seasons}}</td>
            <td>{{join .Genres}}</td>
            <td>{{if .VoteAverage}}{{printf "%.1f" .VoteAverage}}/10{{else}}-{{end}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}

    <div class="footer">
        <p>Este es un correo automático de StreamFusion.</p>
    </div>
</body>
</html>
`))

func joinGenres(g []string) string {
	if len(g) == 0 {
		return "-"
	}
	return strings.Join(g, ", ")
}

// NewEmailNotifier creates a notifier that dials SMTP with cfg.
func NewEmailNotifier(cfg EmailConfig, logger zerolog.Logger) *EmailNotifier {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	return NewEmailNotifierWithSender(cfg, d, logger)
}

// NewEmailNotifierWithSender creates a notifier around an existing sender.
func NewEmailNotifierWithSender(cfg EmailConfig, sender Sender, logger zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		from:       cfg.From,
		recipients: cfg.Recipients,
		sender:     sender,
		digest:     digestTemplate,
		logger:     logger.With().Str("component", "notifier").Logger(),
		now:        time.Now,
	}
}

func (n *EmailNotifier) newMessage(subject string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.recipients...)
	m.SetHeader("Subject", subject)
	return m
}

// NotifyDigest sends the list of items added since the given time.
func (n *EmailNotifier) NotifyDigest(ctx context.Context, items []catalog.Item, since time.Time) error {
	if len(items) == 0 {
		n.logger.Info().Msg("no new content, skipping digest")
		return nil
	}
	if len(n.recipients) == 0 {
		n.logger.Warn().Msg("no recipients configured, skipping digest")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	movies, series := catalog.SplitByKind(items)

	data := struct {
		Date       string
		Since      string
		TotalCount int
		Movies     []catalog.Item
		Series     []catalog.Item
	}{
		Date:       n.now().Format("02/01/2006 15:04"),
		Since:      since.Format("02/01/2006"),
		TotalCount: len(items),
		Movies:     movies,
		Series:     series,
	}

	var body bytes.Buffer
	if err := n.digest.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	m := n.newMessage(fmt.Sprintf("StreamFusion: %d novedades (%d películas, %d series)",
		len(items), len(movies), len(series)))

	var plain strings.Builder
	fmt.Fprintf(&plain, "StreamFusion - Novedades\n\nContenido agregado desde %s.\n\n", data.Since)
	for _, it := range items {
		fmt.Fprintf(&plain, "- %s (%s)\n", it.Title, it.Kind)
	}
	m.SetBody("text/plain", plain.String())
	m.AddAlternative("text/html", body.String())

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	n.logger.Info().Int("items", len(items)).Strs("to", n.recipients).Msg("digest sent")
	return nil
}

// NotifyNewMessage alerts operators that a user wrote to the admin inbox.
func (n *EmailNotifier) NotifyNewMessage(msg storage.Message) error {
	if len(n.recipients) == 0 {
		return nil
	}
	m := n.newMessage("StreamFusion: nuevo mensaje de un usuario")
	m.SetBody("text/plain", fmt.Sprintf("De: %s\nFecha: %s\n\n%s\n",
		msg.From, msg.CreatedAt.Format("02/01/2006 15:04"), msg.Body))

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	n.logger.Info().Str("from", msg.From).Msg("message alert sent")
	return nil
}

// WatchInbox emails operators for every message addressed to the admin
// inbox until ctx is done or the subscription closes.
func (n *EmailNotifier) WatchInbox(ctx context.Context, sub events.Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-sub:
			if !ok {
				return
			}
			msg := messageFromPayload(p)
			if msg.To != messaging.AdminInbox {
				continue
			}
			if err := n.NotifyNewMessage(msg); err != nil {
				n.logger.Error().Err(err).Msg("failed to send message alert")
			}
		}
	}
}

func messageFromPayload(p events.Payload) storage.Message {
	str := func(k string) string {
		v, _ := p[k].(string)
		return v
	}
	created, _ := time.Parse(time.RFC3339Nano, str("created_at"))
	return storage.Message{
		ID:        str("id"),
		From:      str("from"),
		To:        str("to"),
		Body:      str("body"),
		CreatedAt: created,
	}
}
