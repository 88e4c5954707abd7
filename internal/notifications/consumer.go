package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsubv2 "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/docurail/metrodocs-backend/pkg/db/models"
	"github.com/docurail/metrodocs-backend/pkg/logger"
	"github.com/docurail/metrodocs-backend/pkg/pubsub"
)

const documentNotificationConsumer = "document-notifications"

type consumerRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type memberDirectory interface {
	ListActiveByDepartment(ctx context.Context, departmentID uuid.UUID) ([]models.User, error)
}

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer watches document events and fans uploads out to the owning
// department's members as in-app notifications.
type Consumer struct {
	repo         consumerRepository
	members      memberDirectory
	subscription *pubsubv2.Subscriber
	guard        idempotencyGuard
	logg         *logger.Logger
}

// NewConsumer builds a document notification consumer.
func NewConsumer(repo consumerRepository, members memberDirectory, subscription *pubsubv2.Subscriber, guard idempotencyGuard, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if members == nil {
		return nil, fmt.Errorf("member directory required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("document subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		members:      members,
		subscription: subscription,
		guard:        guard,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsubv2.Message) {
		result := c.process(ctx, msg.ID, msg.Attributes, msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, messageID string, attributes map[string]string, data []byte) processResult {
	eventType := attributes["type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != KindDocumentUploaded {
		c.logg.Info(logCtx, "skipping non-document event")
		return processResult{ack: true}
	}

	var event pubsub.DocumentEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode document event", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(event.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.guard.CheckAndMarkProcessed(ctx, documentNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"document_id":   event.DocumentID.String(),
		"department_id": event.DepartmentID.String(),
	})

	if err := c.fanOut(ctx, event); err != nil {
		c.logg.Error(logCtx, "notification fan-out failed", err)
		_ = c.guard.Delete(ctx, documentNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "department notified of new document")
	return processResult{ack: true}
}

func (c *Consumer) fanOut(ctx context.Context, event pubsub.DocumentEvent) error {
	if event.DepartmentID == uuid.Nil {
		return fmt.Errorf("department id missing")
	}

	members, err := c.members.ListActiveByDepartment(ctx, event.DepartmentID)
	if err != nil {
		return fmt.Errorf("listing department members: %w", err)
	}

	body := fmt.Sprintf("Document %s is available in your department.", event.DocumentID)
	if event.Classification != "" {
		body = fmt.Sprintf("Document %s (%s) is available in your department.", event.DocumentID, event.Classification)
	}

	for _, member := range members {
		if member.ID == event.UploadedBy {
			continue
		}
		notification := &models.Notification{
			UserID: member.ID,
			Kind:   KindDocumentUploaded,
			Title:  "New document in your department",
			Body:   body,
		}
		if err := c.repo.Create(ctx, notification); err != nil {
			return fmt.Errorf("creating notification for %s: %w", member.ID, err)
		}
	}
	return nil
}
