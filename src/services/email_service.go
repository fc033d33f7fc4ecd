package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/gset/fibertrack/backend/src/config"
	"github.com/gset/fibertrack/backend/src/logger"
	"github.com/gset/fibertrack/backend/src/models"
	"github.com/mailgun/mailgun-go/v4"
)

// NewNotificationService picks the mail transport from configuration. Without recipients or
// with incomplete credentials the mock transport only logs.
func NewNotificationService() NotificationService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Notification service will default to mock.")
		return &MockNotificationService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	recipients := config.Cfg.ImportReportRecipients
	logger.L.Info("Initializing notification service", "provider", provider, "recipients", len(recipients))

	if len(recipients) == 0 {
		logger.L.Info("No IMPORT_REPORT_RECIPIENTS configured. Using MockNotificationService.")
		return &MockNotificationService{}
	}

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockNotificationService.")
			return &MockNotificationService{Recipients: recipients}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunNotificationService{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
			recipients:  recipients,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockNotificationService.")
			return &MockNotificationService{Recipients: recipients}
		}
		return &SMTPNotificationService{
			SMTPServer:   config.Cfg.SMTPServer,
			SMTPPort:     config.Cfg.SMTPPort,
			SMTPUser:     config.Cfg.SMTPUser,
			SMTPPassword: config.Cfg.SMTPPassword,
			SenderEmail:  config.Cfg.SenderEmail,
			Recipients:   recipients,
		}
	default:
		logger.L.Info("Defaulting to MockNotificationService.")
		return &MockNotificationService{Recipients: recipients}
	}
}

func importReportSubject(batch models.ImportBatch) string {
	return fmt.Sprintf("Import %s : %s", batch.Period, batch.Filename)
}

// importReportBody is the plain-text summary shared by every transport.
func importReportBody(batch models.ImportBatch, outcome *models.ParseOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Fichier : %s\n", batch.Filename)
	fmt.Fprintf(&b, "Format : %s\n", batch.Format)
	fmt.Fprintf(&b, "Période : %s\n", batch.Period)
	fmt.Fprintf(&b, "Lignes importées : %d\n", batch.TotalRecords)
	fmt.Fprintf(&b, "Lignes ignorées : %d\n", batch.SkippedRecords)
	if outcome != nil && len(outcome.Interventions) > 0 {
		fmt.Fprintf(&b, "Montant GSET : %s €\n", outcome.Totals.AmountGset.StringFixed(2))
		fmt.Fprintf(&b, "Montant techniciens : %s €\n", outcome.Totals.AmountTech.StringFixed(2))
		fmt.Fprintf(&b, "Marge : %s €\n", outcome.Totals.Margin.StringFixed(2))
	}
	if outcome != nil && len(outcome.Warnings) > 0 {
		b.WriteString("\nAvertissements :\n")
		for _, w := range outcome.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

type SMTPNotificationService struct {
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
	Recipients   []string
}

func (s *SMTPNotificationService) SendImportReport(ctx context.Context, batch models.ImportBatch, outcome *models.ParseOutcome) error {
	from := s.SenderEmail
	subject := importReportSubject(batch)
	body := importReportBody(batch, outcome)

	header := make(map[string]string)
	header["From"] = from
	header["To"] = strings.Join(s.Recipients, ", ")
	header["Subject"] = subject
	header["MIME-version"] = "1.0"
	header["Content-Type"] = "text/plain; charset=\"UTF-8\""
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body
	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	err := smtp.SendMail(addr, auth, from, s.Recipients, []byte(message))
	if err != nil {
		logger.FromContext(ctx).Error("Failed to send import report via SMTP", "error", err, "to", s.Recipients)
		return fmt.Errorf("failed to send import report via SMTP: %w", err)
	}
	logger.FromContext(ctx).Info("Import report sent successfully via SMTP", "to", s.Recipients)
	return nil
}

type MailgunNotificationService struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
	recipients  []string
}

func (s *MailgunNotificationService) SendImportReport(ctx context.Context, batch models.ImportBatch, outcome *models.ParseOutcome) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	message := s.mg.NewMessage(from, importReportSubject(batch), importReportBody(batch, outcome), s.recipients...)
	message.AddTag("import-report")

	ctx, cancel := context.WithTimeout(ctx, time.Second*20)
	defer cancel()

	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to send import report via Mailgun", "error", err, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.FromContext(ctx).Info("Import report sent successfully via Mailgun", "id", id, "mailgunResp", resp)
	return nil
}

// MockNotificationService logs the report instead of sending it. Sent keeps every report
// for inspection.
type MockNotificationService struct {
	Recipients []string
	Sent       []models.ImportBatch
}

func (m *MockNotificationService) SendImportReport(ctx context.Context, batch models.ImportBatch, outcome *models.ParseOutcome) error {
	m.Sent = append(m.Sent, batch)
	logger.FromContext(ctx).Info("MockNotificationService: Would send import report.",
		"to", m.Recipients, "subject", importReportSubject(batch), "records", batch.TotalRecords)
	return nil
}
