// Package store persists audit findings to DynamoDB. Writes are best-effort
// and per-item: a failed put is reported to the caller and never affects
// other findings.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/cloudsentry/s3audit/internal/models"
)

// dynamoAPIClient is the narrow DynamoDB interface used by the store.
// DescribeTable exists only for the doctor command's connectivity check.
type dynamoAPIClient interface {
	PutItem(ctx context.Context, params *ddb.PutItemInput, optFns ...func(*ddb.Options)) (*ddb.PutItemOutput, error)
	DescribeTable(ctx context.Context, params *ddb.DescribeTableInput, optFns ...func(*ddb.Options)) (*ddb.DescribeTableOutput, error)
}

// item is the DynamoDB representation of a finding. The bucketName and
// timestamp attribute names form the table's composite key and match the
// table schema; do not rename them.
type item struct {
	BucketName string   `dynamodbav:"bucketName"`
	Timestamp  string   `dynamodbav:"timestamp"`
	Reasons    []string `dynamodbav:"reasons"`
	RuleID     string   `dynamodbav:"ruleId,omitempty"`
	AccountID  string   `dynamodbav:"accountId,omitempty"`
	Severity   string   `dynamodbav:"severity,omitempty"`
}

// DynamoDBStore writes findings to a single DynamoDB table keyed by
// (bucketName, timestamp).
type DynamoDBStore struct {
	client dynamoAPIClient
	table  string
}

// NewDynamoDBStore returns a store backed by a production DynamoDB client
// built from cfg, writing to the named table.
func NewDynamoDBStore(cfg aws.Config, table string) *DynamoDBStore {
	return &DynamoDBStore{client: ddb.NewFromConfig(cfg), table: table}
}

// NewDynamoDBStoreWithClient returns a store using the supplied client.
// Tests pass a fake.
func NewDynamoDBStoreWithClient(client dynamoAPIClient, table string) *DynamoDBStore {
	return &DynamoDBStore{client: client, table: table}
}

// Put writes one finding. Timestamps are stored in RFC 3339 form so range
// queries on the sort key order chronologically.
func (s *DynamoDBStore) Put(ctx context.Context, f models.Finding) error {
	attrs, err := attributevalue.MarshalMap(item{
		BucketName: f.BucketName,
		Timestamp:  f.Timestamp.UTC().Format(time.RFC3339),
		Reasons:    f.Reasons,
		RuleID:     f.RuleID,
		AccountID:  f.AccountID,
		Severity:   string(f.Severity),
	})
	if err != nil {
		return fmt.Errorf("marshal finding for %q: %w", f.BucketName, err)
	}
	_, err = s.client.PutItem(ctx, &ddb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      attrs,
	})
	if err != nil {
		return fmt.Errorf("put finding for %q: %w", f.BucketName, err)
	}
	return nil
}

// Ping verifies the table exists and is reachable with the current
// credentials. Used by the doctor command.
func (s *DynamoDBStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &ddb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return fmt.Errorf("describe table %q: %w", s.table, err)
	}
	return nil
}
