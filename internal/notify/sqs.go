// Package notify announces finished runs on an SQS queue.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/goccy/go-json"
)

// Message is the body and string attributes of a notification.
type Message struct {
	Body       any
	Attributes map[string]string
}

// Notifier publishes run notifications.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Nop drops every message. It is used when no output queue is configured.
type Nop struct{}

func (Nop) Notify(context.Context, Message) error { return nil }

// SQSNotifier sends notifications to a named queue.
type SQSNotifier struct {
	client   *sqs.SQS
	queue    string
	queueURL *string
}

// NewSQSNotifier connects to queue in region.
func NewSQSNotifier(region, queue string) (*SQSNotifier, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return &SQSNotifier{client: sqs.New(sess), queue: queue}, nil
}

func (n *SQSNotifier) url(ctx context.Context) (*string, error) {
	if n.queueURL != nil {
		return n.queueURL, nil
	}
	out, err := n.client.GetQueueUrlWithContext(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(n.queue),
	})
	if err != nil {
		return nil, fmt.Errorf("find queue %q: %w", n.queue, err)
	}
	n.queueURL = out.QueueUrl
	return n.queueURL, nil
}

func (n *SQSNotifier) Notify(ctx context.Context, msg Message) error {
	queueURL, err := n.url(ctx)
	if err != nil {
		return err
	}
	body, err := json.Marshal(msg.Body)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	_, err = n.client.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		MessageAttributes: messageAttributes(msg.Attributes),
		MessageBody:       aws.String(string(body)),
		QueueUrl:          queueURL,
	})
	if err != nil {
		return fmt.Errorf("send to queue %q: %w", n.queue, err)
	}
	return nil
}

// messageAttributes converts attrs to SQS string attributes, dropping empty values.
func messageAttributes(attrs map[string]string) map[string]*sqs.MessageAttributeValue {
	out := make(map[string]*sqs.MessageAttributeValue, len(attrs))
	for k, v := range attrs {
		if v == "" {
			continue
		}
		out[k] = &sqs.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(v),
		}
	}
	return out
}
