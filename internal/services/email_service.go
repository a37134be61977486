package services

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/agrosync/agrosync-api/internal/config"
	"github.com/agrosync/agrosync-api/pkg/logger"
	"github.com/resend/resend-go/v2"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

// ReportEmail is the data rendered into report delivery emails
type ReportEmail struct {
	JobID       string
	Title       string
	Period      string
	Format      string
	FarmCount   int
	DownloadURL string
	ExpiresAt   string
}

type EmailService struct {
	config *config.Config
	send   func(*resend.SendEmailRequest) error
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config: cfg,
		send: func(params *resend.SendEmailRequest) error {
			_, err := client.Emails.Send(params)
			return err
		},
	}
}

// checkEmailPreconditions returns false without error when email delivery is not configured
func (s *EmailService) checkEmailPreconditions(recipients []string, operation string) (bool, error) {
	if s.config.ResendAPIKey == "" {
		logger.Debug("Email delivery not configured, skipping", slog.String("operation", operation))
		return false, nil
	}
	if s.config.FromEmail == "" {
		return false, errors.New("FROM_EMAIL is not set")
	}
	if len(recipients) == 0 {
		return false, errors.New("no recipients")
	}
	for _, r := range recipients {
		if strings.TrimSpace(r) == "" {
			return false, errors.New("email address is empty")
		}
	}
	return true, nil
}

// SendReportReady emails the download link of a finished report to its recipients
func (s *EmailService) SendReportReady(ctx context.Context, recipients []string, data ReportEmail) error {
	return s.deliver(recipients, "report ready", "report_ready.html", fmt.Sprintf("Your report %q is ready", data.Title), data)
}

// SendReportFailed tells recipients a report could not be produced
func (s *EmailService) SendReportFailed(ctx context.Context, recipients []string, data ReportEmail) error {
	return s.deliver(recipients, "report failed", "export_failed.html", fmt.Sprintf("Report %q could not be generated", data.Title), data)
}

func (s *EmailService) deliver(recipients []string, operation, templateName, subject string, data any) error {
	ok, err := s.checkEmailPreconditions(recipients, operation)
	if !ok {
		return err
	}

	body, err := s.renderTemplate(templateName, data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      recipients,
		Subject: subject,
		Html:    body,
	}
	if err := s.send(params); err != nil {
		logger.Error("Failed to send email", slog.Int("recipients", len(recipients)), slog.String("subject", subject), slog.String("error", err.Error()))
		return err
	}

	logger.Info("Email sent", slog.Int("recipients", len(recipients)), slog.String("subject", subject))
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
