package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/cloudsentry/s3audit/internal/models"
)

// fakeDynamoClient records PutItem inputs and returns canned errors.
type fakeDynamoClient struct {
	putInputs []*ddb.PutItemInput
	putErr    error
	descErr   error
}

func (f *fakeDynamoClient) PutItem(_ context.Context, in *ddb.PutItemInput, _ ...func(*ddb.Options)) (*ddb.PutItemOutput, error) {
	f.putInputs = append(f.putInputs, in)
	return &ddb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamoClient) DescribeTable(context.Context, *ddb.DescribeTableInput, ...func(*ddb.Options)) (*ddb.DescribeTableOutput, error) {
	return &ddb.DescribeTableOutput{}, f.descErr
}

func testFinding() models.Finding {
	return models.Finding{
		ID:           "S3_PUBLIC_EXPOSURE-demo-public",
		RuleID:       models.RulePublicExposure,
		BucketName:   "demo-public",
		ResourceType: models.ResourceS3Bucket,
		AccountID:    "111122223333",
		Severity:     models.SeverityHigh,
		Reasons:      []string{"No Public Access Block (PAB) configuration found."},
		Timestamp:    time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}
}

func TestPut_ItemShape(t *testing.T) {
	fake := &fakeDynamoClient{}
	s := NewDynamoDBStoreWithClient(fake, "findings")

	if err := s.Put(context.Background(), testFinding()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.putInputs) != 1 {
		t.Fatalf("want 1 PutItem call, got %d", len(fake.putInputs))
	}
	in := fake.putInputs[0]
	if aws.ToString(in.TableName) != "findings" {
		t.Errorf("table: got %q", aws.ToString(in.TableName))
	}

	// The composite key attributes must match the table schema exactly.
	name, ok := in.Item["bucketName"].(*ddbtypes.AttributeValueMemberS)
	if !ok || name.Value != "demo-public" {
		t.Errorf("bucketName attribute: got %#v", in.Item["bucketName"])
	}
	ts, ok := in.Item["timestamp"].(*ddbtypes.AttributeValueMemberS)
	if !ok || ts.Value != "2026-08-25T12:00:00Z" {
		t.Errorf("timestamp attribute: got %#v", in.Item["timestamp"])
	}
	reasons, ok := in.Item["reasons"].(*ddbtypes.AttributeValueMemberL)
	if !ok || len(reasons.Value) != 1 {
		t.Fatalf("reasons attribute: got %#v", in.Item["reasons"])
	}
	if first, ok := reasons.Value[0].(*ddbtypes.AttributeValueMemberS); !ok ||
		first.Value != "No Public Access Block (PAB) configuration found." {
		t.Errorf("reasons[0]: got %#v", reasons.Value[0])
	}
}

func TestPut_Error(t *testing.T) {
	s := NewDynamoDBStoreWithClient(&fakeDynamoClient{putErr: errors.New("throughput exceeded")}, "findings")
	if err := s.Put(context.Background(), testFinding()); err == nil {
		t.Fatal("want error")
	}
}

func TestPing(t *testing.T) {
	ok := NewDynamoDBStoreWithClient(&fakeDynamoClient{}, "findings")
	if err := ok.Ping(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	bad := NewDynamoDBStoreWithClient(&fakeDynamoClient{descErr: errors.New("no such table")}, "findings")
	if err := bad.Ping(context.Background()); err == nil {
		t.Error("want error for missing table")
	}
}
