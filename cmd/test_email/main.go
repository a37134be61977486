package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/agrosync/agrosync-api/internal/config"
	"github.com/agrosync/agrosync-api/internal/services"
	"github.com/agrosync/agrosync-api/pkg/logger"
	"github.com/joho/godotenv"
)

// Sends the report delivery emails to TEST_EMAIL_TO so templates can be checked in a real inbox.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Setup("development", "debug")

	if cfg.ResendAPIKey == "" {
		log.Fatal("RESEND_API_KEY is not set")
	}

	emailService := services.NewEmailService(cfg)

	toEmail := os.Getenv("TEST_EMAIL_TO")
	if toEmail == "" {
		toEmail = "test@example.com"
		log.Println("TEST_EMAIL_TO not set, using test@example.com. Delivery fails unless the From domain is verified.")
	}
	recipients := []string{toEmail}

	data := services.ReportEmail{
		JobID:       "00000000-0000-0000-0000-000000000000",
		Title:       "Quarterly Operations Review",
		Period:      "quarter",
		Format:      "pdf",
		FarmCount:   3,
		DownloadURL: cfg.PublicBaseURL + "/api/v1/analytics/exports/00000000-0000-0000-0000-000000000000/download",
		ExpiresAt:   time.Now().Add(cfg.ExportRetention).Format(time.RFC1123),
	}

	log.Printf("Sending Report Ready email to %s...", toEmail)
	if err := emailService.SendReportReady(context.Background(), recipients, data); err != nil {
		log.Fatalf("Failed to send Report Ready email: %v", err)
	}
	log.Println("Report Ready email sent successfully!")

	log.Printf("Sending Report Failed email to %s...", toEmail)
	if err := emailService.SendReportFailed(context.Background(), recipients, data); err != nil {
		log.Fatalf("Failed to send Report Failed email: %v", err)
	}
	log.Println("Report Failed email sent successfully!")
}
