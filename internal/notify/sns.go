// Package notify delivers audit notifications to an SNS topic.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	snssvc "github.com/aws/aws-sdk-go-v2/service/sns"
)

// snsAPIClient is the narrow SNS interface used by the notifier.
// GetTopicAttributes exists only for the doctor command's connectivity check.
type snsAPIClient interface {
	Publish(ctx context.Context, params *snssvc.PublishInput, optFns ...func(*snssvc.Options)) (*snssvc.PublishOutput, error)
	GetTopicAttributes(ctx context.Context, params *snssvc.GetTopicAttributesInput, optFns ...func(*snssvc.Options)) (*snssvc.GetTopicAttributesOutput, error)
}

// SNSNotifier publishes subject/message pairs to a single topic.
type SNSNotifier struct {
	client   snsAPIClient
	topicARN string
}

// NewSNSNotifier returns a notifier backed by a production SNS client built
// from cfg, publishing to topicARN.
func NewSNSNotifier(cfg aws.Config, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: snssvc.NewFromConfig(cfg), topicARN: topicARN}
}

// NewSNSNotifierWithClient returns a notifier using the supplied client.
// Tests pass a fake.
func NewSNSNotifierWithClient(client snsAPIClient, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

// Publish sends one message to the configured topic.
func (n *SNSNotifier) Publish(ctx context.Context, subject, message string) error {
	_, err := n.client.Publish(ctx, &snssvc.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("publish to %q: %w", n.topicARN, err)
	}
	return nil
}

// Ping verifies the topic exists and is reachable with the current
// credentials. Used by the doctor command.
func (n *SNSNotifier) Ping(ctx context.Context) error {
	_, err := n.client.GetTopicAttributes(ctx, &snssvc.GetTopicAttributesInput{
		TopicArn: aws.String(n.topicARN),
	})
	if err != nil {
		return fmt.Errorf("get topic attributes for %q: %w", n.topicARN, err)
	}
	return nil
}
