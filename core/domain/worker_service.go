package domain

import (
	"net/mail"
	"strings"
	"time"
)

// ServiceRecord is one detected platform per unique sender domain.
type ServiceRecord struct {
	ID              string          `json:"id" bson:"id"`
	UserID          string          `json:"user_id" bson:"user_id"`
	Domain          string          `json:"domain" bson:"domain"`
	PlatformName    string          `json:"platform_name" bson:"platform_name"`
	Category        Category        `json:"category" bson:"category"`
	Confidence      int             `json:"confidence" bson:"confidence"`
	DetectionMethod DetectionMethod `json:"detection_method" bson:"detection_method"`
	SenderEmail     string          `json:"sender_email" bson:"sender_email"`
	Subject         string          `json:"subject" bson:"subject"`
	DateHeader      string          `json:"date_header" bson:"date_header"`
	ReceivedAt      *time.Time      `json:"received_at,omitempty" bson:"received_at,omitempty"`
	MessageID       string          `json:"message_id" bson:"message_id"`
	DetectedAt      time.Time       `json:"detected_at" bson:"detected_at"`
}

type ScanOptions struct {
	Query        string `json:"query"`
	MaxMessages  int    `json:"max_messages"`
	ForceRefresh bool   `json:"force_refresh"`
}

type ScanResult struct {
	ScanID    string          `json:"scan_id"`
	Services  []ServiceRecord `json:"services"`
	FromCache bool            `json:"from_cache"`
	Listed    int             `json:"listed"`
	Fetched   int             `json:"fetched"`
	Skipped   int             `json:"skipped"`
	Discarded int             `json:"discarded"`
	Duration  time.Duration   `json:"duration"`
}

func parseMailDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := mail.ParseDate(s)
	if err != nil {
		return time.Time{}
	}
	return t
}
