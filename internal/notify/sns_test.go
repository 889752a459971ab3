package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	snssvc "github.com/aws/aws-sdk-go-v2/service/sns"
)

// fakeSNSClient records Publish inputs and returns canned errors.
type fakeSNSClient struct {
	published []*snssvc.PublishInput
	pubErr    error
	attrErr   error
}

func (f *fakeSNSClient) Publish(_ context.Context, in *snssvc.PublishInput, _ ...func(*snssvc.Options)) (*snssvc.PublishOutput, error) {
	f.published = append(f.published, in)
	return &snssvc.PublishOutput{}, f.pubErr
}

func (f *fakeSNSClient) GetTopicAttributes(context.Context, *snssvc.GetTopicAttributesInput, ...func(*snssvc.Options)) (*snssvc.GetTopicAttributesOutput, error) {
	return &snssvc.GetTopicAttributesOutput{}, f.attrErr
}

func TestPublish(t *testing.T) {
	fake := &fakeSNSClient{}
	n := NewSNSNotifierWithClient(fake, "arn:aws:sns:us-east-1:111122223333:alerts")

	if err := n.Publish(context.Background(), "subject", "body"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.published) != 1 {
		t.Fatalf("want 1 publish, got %d", len(fake.published))
	}
	in := fake.published[0]
	if aws.ToString(in.TopicArn) != "arn:aws:sns:us-east-1:111122223333:alerts" {
		t.Errorf("topic: got %q", aws.ToString(in.TopicArn))
	}
	if aws.ToString(in.Subject) != "subject" || aws.ToString(in.Message) != "body" {
		t.Errorf("payload: subject=%q message=%q", aws.ToString(in.Subject), aws.ToString(in.Message))
	}
}

func TestPublish_Error(t *testing.T) {
	n := NewSNSNotifierWithClient(&fakeSNSClient{pubErr: errors.New("topic gone")}, "arn:x")
	if err := n.Publish(context.Background(), "s", "m"); err == nil {
		t.Fatal("want error")
	}
}

func TestPing(t *testing.T) {
	ok := NewSNSNotifierWithClient(&fakeSNSClient{}, "arn:x")
	if err := ok.Ping(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	bad := NewSNSNotifierWithClient(&fakeSNSClient{attrErr: errors.New("not found")}, "arn:x")
	if err := bad.Ping(context.Background()); err == nil {
		t.Error("want error for unreachable topic")
	}
}
