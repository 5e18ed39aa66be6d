package services

import (
	"log"
	"os"

	"echoboard/internal/models"

	"github.com/slack-go/slack"
	"gorm.io/gorm"
)

// NotifierService writes in-app notification rows and fans successful
// mutations out to an optional Slack webhook. Both paths are fire-and-forget:
// delivery failures are logged and never roll back or fail the operation that
// triggered them.
type NotifierService struct {
	db         *gorm.DB
	webhookURL string
}

func NewNotifierService(db *gorm.DB) *NotifierService {
	return &NotifierService{
		db:         db,
		webhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
	}
}

func (s *NotifierService) Notify(userID uint, actorID *uint, ntype models.NotificationType, reason string) error {
	notification := models.Notification{
		UserID:  userID,
		ActorID: actorID,
		Type:    ntype,
		Reason:  reason,
	}
	return s.db.Create(&notification).Error
}

func (s *NotifierService) NotifyAsync(userID uint, actorID *uint, ntype models.NotificationType, reason string) {
	go func() {
		if err := s.Notify(userID, actorID, ntype, reason); err != nil {
			log.Printf("Notification create failed for user %d: %v", userID, err)
		}
	}()
}

// AnnounceAsync posts to the configured Slack webhook, if any.
func (s *NotifierService) AnnounceAsync(text string) {
	if s.webhookURL == "" {
		return
	}
	go func() {
		msg := &slack.WebhookMessage{Text: text}
		if err := slack.PostWebhook(s.webhookURL, msg); err != nil {
			log.Printf("Slack webhook delivery failed: %v", err)
		}
	}()
}
