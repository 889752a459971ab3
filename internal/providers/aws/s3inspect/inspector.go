// Package s3inspect retrieves per-bucket access-control configuration from
// the S3 API and maps it onto classifier inputs. It performs no
// classification itself: every retrieval result, including "configuration
// absent", is passed through as an explicit outcome for the classifier to
// interpret.
package s3inspect

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/cloudsentry/s3audit/internal/classifier"
	"github.com/cloudsentry/s3audit/internal/models"
	"github.com/cloudsentry/s3audit/internal/policydoc"
)

// S3 error codes that mean "the artifact does not exist". Neither is modelled
// as a typed error in the SDK, so they are matched by code.
const (
	codeNoPublicAccessBlock = "NoSuchPublicAccessBlockConfiguration"
	codeNoBucketPolicy      = "NoSuchBucketPolicy"
)

// Inspector reads bucket access-control artifacts through a narrow S3 client.
// It implements the audit package's BucketLister, PABReader, ACLReader, and
// PolicyReader collaborator interfaces.
type Inspector struct {
	client s3APIClient
}

// NewInspector returns an Inspector backed by a production S3 client built
// from cfg.
func NewInspector(cfg aws.Config) *Inspector {
	return &Inspector{client: s3svc.NewFromConfig(cfg)}
}

// NewInspectorWithClient returns an Inspector using the supplied client.
// Tests pass a fake.
func NewInspectorWithClient(client s3APIClient) *Inspector {
	return &Inspector{client: client}
}

// ListBuckets returns the names of all buckets in the account, in the order
// the provider returns them.
func (i *Inspector) ListBuckets(ctx context.Context) ([]string, error) {
	out, err := i.client.ListBuckets(ctx, &s3svc.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("list S3 buckets: %w", err)
	}
	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		names = append(names, aws.ToString(b.Name))
	}
	return names, nil
}

// GetPublicAccessBlock retrieves the bucket's public-access block
// configuration. An absent configuration is a meaningful classification
// input and is reported as OutcomeNotFound, not as an error.
func (i *Inspector) GetPublicAccessBlock(ctx context.Context, bucket string) classifier.PABInput {
	out, err := i.client.GetPublicAccessBlock(ctx, &s3svc.GetPublicAccessBlockInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		if errorCode(err) == codeNoPublicAccessBlock {
			return classifier.PABInput{Outcome: classifier.OutcomeNotFound}
		}
		return classifier.PABInput{
			Outcome: classifier.OutcomeError,
			Err:     fmt.Errorf("get public access block for %q: %w", bucket, err),
		}
	}
	cfg := out.PublicAccessBlockConfiguration
	if cfg == nil {
		return classifier.PABInput{Outcome: classifier.OutcomeNotFound}
	}
	return classifier.PABInput{
		Outcome: classifier.OutcomeFound,
		Config: models.PublicAccessBlock{
			BlockPublicACLs:       aws.ToBool(cfg.BlockPublicAcls),
			IgnorePublicACLs:      aws.ToBool(cfg.IgnorePublicAcls),
			BlockPublicPolicy:     aws.ToBool(cfg.BlockPublicPolicy),
			RestrictPublicBuckets: aws.ToBool(cfg.RestrictPublicBuckets),
		},
	}
}

// GetBucketACL retrieves the bucket's ACL grants in provider order.
func (i *Inspector) GetBucketACL(ctx context.Context, bucket string) classifier.ACLInput {
	out, err := i.client.GetBucketAcl(ctx, &s3svc.GetBucketAclInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return classifier.ACLInput{
			Outcome: classifier.OutcomeError,
			Err:     fmt.Errorf("get bucket ACL for %q: %w", bucket, err),
		}
	}
	grants := make([]models.Grant, 0, len(out.Grants))
	for _, g := range out.Grants {
		grant := models.Grant{Permission: string(g.Permission)}
		if g.Grantee != nil {
			grant.Grantee = models.Grantee{
				Type:        models.GranteeType(g.Grantee.Type),
				URI:         aws.ToString(g.Grantee.URI),
				ID:          aws.ToString(g.Grantee.ID),
				DisplayName: aws.ToString(g.Grantee.DisplayName),
			}
		}
		grants = append(grants, grant)
	}
	return classifier.ACLInput{Outcome: classifier.OutcomeFound, Grants: grants}
}

// GetBucketPolicy retrieves and parses the bucket policy. A missing policy
// is the common case and is reported as OutcomeNotFound; a policy that
// exists but fails to parse is reported as OutcomeError carrying the
// policydoc parse error.
func (i *Inspector) GetBucketPolicy(ctx context.Context, bucket string) classifier.PolicyInput {
	out, err := i.client.GetBucketPolicy(ctx, &s3svc.GetBucketPolicyInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		if errorCode(err) == codeNoBucketPolicy {
			return classifier.PolicyInput{Outcome: classifier.OutcomeNotFound}
		}
		return classifier.PolicyInput{
			Outcome: classifier.OutcomeError,
			Err:     fmt.Errorf("get bucket policy for %q: %w", bucket, err),
		}
	}
	doc, err := policydoc.Parse([]byte(aws.ToString(out.Policy)))
	if err != nil {
		return classifier.PolicyInput{
			Outcome: classifier.OutcomeError,
			Err:     fmt.Errorf("bucket policy for %q: %w", bucket, err),
		}
	}
	return classifier.PolicyInput{Outcome: classifier.OutcomeFound, Document: doc}
}

// errorCode extracts the service error code from an SDK error, or "" when
// the error is not an API error.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
