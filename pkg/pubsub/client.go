package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/docurail/metrodocs-backend/pkg/config"
	"github.com/docurail/metrodocs-backend/pkg/logger"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNothingConfigured = errors.New("pubsub topic or subscription is required")
)

// NewClient creates a Pub/Sub v2 client and verifies whichever document
// resources are configured. A publisher-only deployment sets just the topic;
// the consumer additionally sets the subscription.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:    psClient,
		projectID: gcp.ProjectID,
		cfg:       cfg,
	}

	if err := c.ensureConfiguredResources(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "pubsub client initialized")
	}

	return c, nil
}

// configuredResources reports which document resources this deployment
// declared. At least one of topic and subscription must be set.
func (c *Client) configuredResources() (topic, subscription string, err error) {
	topic = strings.TrimSpace(c.cfg.DocumentTopic)
	subscription = strings.TrimSpace(c.cfg.DocumentSubscription)
	if topic == "" && subscription == "" {
		return "", "", errNothingConfigured
	}
	return topic, subscription, nil
}

func (c *Client) ensureConfiguredResources(ctx context.Context) error {
	topic, subscription, err := c.configuredResources()
	if err != nil {
		return err
	}
	if topic != "" {
		if err := c.ensureTopicExists(ctx, topic); err != nil {
			return err
		}
	}
	if subscription != "" {
		if err := c.ensureSubscriptionExists(ctx, subscription); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) ensureTopicExists(ctx context.Context, name string) error {
	fullName := c.topicResourceName(name)
	if fullName == "" {
		return fmt.Errorf("topic %q not configured", name)
	}

	_, err := c.client.TopicAdminClient.GetTopic(
		ctx,
		&pubsubpb.GetTopicRequest{Topic: fullName},
	)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %q does not exist", name)
		}
		return fmt.Errorf("checking topic %q: %w", name, err)
	}

	return nil
}

func (c *Client) ensureSubscriptionExists(ctx context.Context, name string) error {
	fullName := c.subscriptionResourceName(name)
	if fullName == "" {
		return fmt.Errorf("subscription %q not configured", name)
	}

	_, err := c.client.SubscriptionAdminClient.GetSubscription(
		ctx,
		&pubsubpb.GetSubscriptionRequest{Subscription: fullName},
	)
	if err != nil {
		// v2 uses gRPC errors; NotFound means the subscription doesn't exist.
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("subscription %q does not exist", name)
		}
		return fmt.Errorf("checking subscription %q: %w", name, err)
	}

	return nil
}

// Subscription returns a v2 Subscriber handle for the configured subscription name (ID or full resource name).
func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := c.subscriptionResourceName(name)
	if fullName == "" {
		return nil
	}
	return c.client.Subscriber(fullName)
}

// DocumentSubscription returns the configured document event subscriber.
func (c *Client) DocumentSubscription() *pubsub.Subscriber {
	return c.Subscription(c.cfg.DocumentSubscription)
}

// Publisher returns a publisher handle for the given topic ID/resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := c.topicResourceName(name)
	if fullName == "" {
		return nil
	}
	return c.client.Publisher(fullName)
}

// DocumentPublisher returns the configured document event publisher.
func (c *Client) DocumentPublisher() *pubsub.Publisher {
	return c.Publisher(c.cfg.DocumentTopic)
}

// DocumentEvent is the payload published after the upload pipeline persists a document.
type DocumentEvent struct {
	EventID        string    `json:"event_id"`
	Type           string    `json:"type"`
	DocumentID     uuid.UUID `json:"document_id"`
	DepartmentID   uuid.UUID `json:"department_id"`
	UploadedBy     uuid.UUID `json:"uploaded_by"`
	Classification string    `json:"classification,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// PublishDocumentEvent serializes the event and publishes it on the document topic,
// blocking until the server acknowledges the message.
func (c *Client) PublishDocumentEvent(ctx context.Context, event DocumentEvent) error {
	publisher := c.DocumentPublisher()
	if publisher == nil {
		return errors.New("document topic not configured")
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding document event: %w", err)
	}

	result := publisher.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"type":     event.Type,
			"event_id": event.EventID,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing document event: %w", err)
	}
	return nil
}

// Ping verifies Pub/Sub connectivity by checking the configured resources exist.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("pubsub client not initialized")
	}
	return c.ensureConfiguredResources(ctx)
}

// Close releases the Pub/Sub client resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) subscriptionResourceName(name string) string {
	if c == nil {
		return ""
	}
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}

	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/subscriptions/") {
		return n
	}

	p := strings.TrimSpace(c.projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/subscriptions/%s", p, n)
}

func (c *Client) topicResourceName(name string) string {
	if c == nil {
		return ""
	}
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/topics/") {
		return n
	}
	p := strings.TrimSpace(c.projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/topics/%s", p, n)
}
