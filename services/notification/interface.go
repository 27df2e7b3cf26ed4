package notification

import (
	"context"
	"fmt"
	"regexp"

	"concierge/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// Sender is the part of the FCM client the service needs.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// NotificationService defines methods for sending staff pushes.
type NotificationService interface {
	NotifyStaff(ctx context.Context, p models.StaffNotifyPayload) error
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	client Sender
	logger *zap.Logger
}

func NewDefaultNotificationService(client Sender, logger *zap.Logger) (*DefaultNotificationService, error) {
	if client == nil {
		return nil, fmt.Errorf("notification service initialization error: FCM client is nil")
	}
	return &DefaultNotificationService{client: client, logger: logger}, nil
}

var topicUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_.~%-]`)

// Topic is the FCM topic staff devices of a tenant department subscribe to.
func Topic(tenantID, department string) string {
	return topicUnsafe.ReplaceAllString("staff-"+tenantID+"-"+department, "_")
}

// NotifyStaff pushes a task to every device subscribed to the department's topic.
func (s *DefaultNotificationService) NotifyStaff(ctx context.Context, p models.StaffNotifyPayload) error {
	msg := BuildMessage(p)
	id, err := s.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("NotifyStaff: failed to send FCM message: %w", err)
	}
	s.logger.Info("staff notified",
		zap.String("taskId", p.TaskID),
		zap.String("topic", msg.Topic),
		zap.String("messageId", id))
	return nil
}

// BuildMessage renders a payload as an FCM topic message.
func BuildMessage(p models.StaffNotifyPayload) *messaging.Message {
	urgent := p.Priority == string(models.PriorityUrgent) || p.Priority == string(models.PriorityHigh)

	androidPriority, channel, apnsPriority := "normal", "tasks", "5"
	if urgent {
		androidPriority, channel, apnsPriority = "high", "high_priority", "10"
	}
	updated := "false"
	if p.Updated {
		updated = "true"
	}

	return &messaging.Message{
		Topic: Topic(p.TenantID, p.Department),
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: map[string]string{
			"type":       "staff_task",
			"taskId":     p.TaskID,
			"department": p.Department,
			"priority":   p.Priority,
			"updated":    updated,
		},
		Android: &messaging.AndroidConfig{
			Priority: androidPriority,
			Notification: &messaging.AndroidNotification{
				ChannelID: channel,
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  apnsPriority,
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
}
