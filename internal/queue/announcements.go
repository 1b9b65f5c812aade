// Package queue provides the SQS producer that notifies the downstream
// push-notification worker of newly created announcements.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/BadgerOps/WOTSapp-sub001/internal/recommendation"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// AnnouncementPublisher sends AnnouncementEvent messages to the
// notification queue. Callers treat publishing as best-effort: a failed
// send is logged by the caller but never rolls back an approval.
type AnnouncementPublisher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

// NewAnnouncementPublisher creates a publisher for the given queue URL.
// A nil logger falls back to slog.Default().
func NewAnnouncementPublisher(client SQSSender, queueURL string, logger *slog.Logger) *AnnouncementPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnnouncementPublisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// PublishAnnouncementCreated serializes the event to JSON and dispatches
// it to the notification queue.
func (p *AnnouncementPublisher) PublishAnnouncementCreated(ctx context.Context, event recommendation.AnnouncementEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal announcement event: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String("announcement.created"),
			},
		},
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("queue: failed to send announcement event to %s: %w", p.queueURL, err)
	}

	p.logger.InfoContext(ctx, "announcement event sent",
		"queue_url", p.queueURL,
		"announcement_id", event.AnnouncementID,
		"recommendation_id", event.RecommendationID,
	)
	return nil
}
