// Package notify dispatches article workflow events to the mail pipeline.
package notify

import (
	"context"
	"log/slog"
	"time"

	"research-review-portal/models"
)

type EventType string

const (
	EventReviewAssigned EventType = "review_assigned"
	EventStatusChanged  EventType = "status_changed"
	EventResubmitted    EventType = "article_resubmitted"
)

// Notification asks for an email to be sent to a single recipient.
type Notification struct {
	Type           EventType            `json:"type"`
	ArticleID      uint                 `json:"article_id"`
	ArticleTitle   string               `json:"article_title"`
	Status         models.ArticleStatus `json:"status"`
	RecipientID    string               `json:"recipient_id"`
	RecipientEmail string               `json:"recipient_email"`
	Comments       string               `json:"comments,omitempty"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

//go:generate mockgen -destination=../mocks/mock_notifier.go -package=mocks research-review-portal/notify Notifier

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier only records notifications. It is used when no stream is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, notification Notification) error {
	n.logger.InfoContext(ctx, "notification",
		"type", notification.Type,
		"article_id", notification.ArticleID,
		"status", notification.Status,
		"recipient", notification.RecipientEmail,
	)
	return nil
}
