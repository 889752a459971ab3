// Package audit orchestrates a single S3 public-exposure audit run: list
// buckets, classify each one, persist findings, and notify. It consumes its
// collaborators (lister, readers, store, notifier) through interfaces and
// never talks to the AWS SDK directly.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cloudsentry/s3audit/internal/classifier"
	"github.com/cloudsentry/s3audit/internal/models"
)

// Notification subjects. The alert and error subjects are part of the
// operator-facing contract; downstream mail filters key on them.
const (
	SubjectAlert    = "AWS Security Alert: Public S3 Bucket(s) Detected!"
	SubjectAllClear = "AWS Security Audit: S3 Buckets All Clear"
	SubjectError    = "AWS Security Audit Error!"
)

// BucketLister returns the names of all buckets to audit, in provider order.
type BucketLister interface {
	ListBuckets(ctx context.Context) ([]string, error)
}

// PABReader retrieves a bucket's public-access block configuration.
type PABReader interface {
	GetPublicAccessBlock(ctx context.Context, bucket string) classifier.PABInput
}

// ACLReader retrieves a bucket's ACL grants.
type ACLReader interface {
	GetBucketACL(ctx context.Context, bucket string) classifier.ACLInput
}

// PolicyReader retrieves and parses a bucket's policy document.
type PolicyReader interface {
	GetBucketPolicy(ctx context.Context, bucket string) classifier.PolicyInput
}

// Inspector bundles the four read collaborators. The production
// implementation is s3inspect.Inspector.
type Inspector interface {
	BucketLister
	PABReader
	ACLReader
	PolicyReader
}

// FindingStore persists findings. Failures are isolated per finding.
type FindingStore interface {
	Put(ctx context.Context, f models.Finding) error
}

// Notifier delivers a subject/message pair to the alert channel.
type Notifier interface {
	Publish(ctx context.Context, subject, message string) error
}

// Completion is the fixed descriptor returned to the auditor's invoker. It
// is success-shaped even when the run failed internally: the run is a
// fire-and-forget scheduled job and its outcomes are observed through logs,
// stored findings, and notifications, not through this value.
type Completion struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Auditor runs the audit sequentially, one bucket at a time. The append-only
// findings list is the only state carried across bucket iterations.
type Auditor struct {
	inspector Inspector
	store     FindingStore
	notifier  Notifier
	logger    *slog.Logger
	accountID string

	// now is the clock; tests override it for deterministic timestamps.
	now func() time.Time
}

// NewAuditor wires an Auditor to its collaborators. accountID is stamped on
// findings and the report; pass "" when unknown.
func NewAuditor(
	inspector Inspector,
	store FindingStore,
	notifier Notifier,
	logger *slog.Logger,
	accountID string,
) *Auditor {
	return &Auditor{
		inspector: inspector,
		store:     store,
		notifier:  notifier,
		logger:    logger,
		accountID: accountID,
		now:       time.Now,
	}
}

// Run executes one full audit and always returns the fixed success-shaped
// Completion, regardless of internal failures. The returned report is for
// the caller's rendering only; persistence and notification have already
// happened by the time Run returns.
func (a *Auditor) Run(ctx context.Context) (*models.AuditReport, Completion) {
	report := a.run(ctx)
	return report, Completion{StatusCode: 200, Body: "S3 audit completed."}
}

func (a *Auditor) run(ctx context.Context) *models.AuditReport {
	started := a.now()
	a.logger.Info("starting S3 public bucket audit", "account_id", a.accountID)

	report := &models.AuditReport{
		ReportID:    "s3audit-" + uuid.NewString(),
		GeneratedAt: started.UTC(),
		AccountID:   a.accountID,
	}

	buckets, err := a.inspector.ListBuckets(ctx)
	if err != nil {
		a.failRun(ctx, err)
		return report
	}

	var findings []models.Finding
	for _, bucket := range buckets {
		a.logger.Debug("checking bucket", "bucket", bucket)

		pab := a.inspector.GetPublicAccessBlock(ctx, bucket)
		if pab.Outcome == classifier.OutcomeError {
			// Fail closed for this bucket: without the PAB state the
			// classification would be unreliable, so no finding is emitted
			// and the remaining checks are not run.
			a.logger.Error("skipping bucket: public access block unavailable",
				"bucket", bucket, "error", pab.Err)
			report.Summary.BucketsSkipped++
			continue
		}

		acl := a.inspector.GetBucketACL(ctx, bucket)
		if acl.Outcome == classifier.OutcomeError {
			a.logger.Warn("ACL check skipped", "bucket", bucket, "error", acl.Err)
		}
		policy := a.inspector.GetBucketPolicy(ctx, bucket)
		if policy.Outcome == classifier.OutcomeError {
			a.logger.Warn("policy check skipped", "bucket", bucket, "error", policy.Err)
		}

		result, err := classifier.Classify(pab, acl, policy)
		if err != nil {
			a.logger.Error("skipping bucket: classification failed", "bucket", bucket, "error", err)
			report.Summary.BucketsSkipped++
			continue
		}
		report.Summary.BucketsScanned++

		if !result.Public {
			a.logger.Debug("bucket appears secure", "bucket", bucket)
			continue
		}
		a.logger.Info("public bucket identified",
			"bucket", bucket, "reasons", strings.Join(result.Reasons, ", "))
		findings = append(findings, models.Finding{
			ID:           fmt.Sprintf("%s-%s", models.RulePublicExposure, bucket),
			RuleID:       models.RulePublicExposure,
			BucketName:   bucket,
			ResourceType: models.ResourceS3Bucket,
			AccountID:    a.accountID,
			Severity:     models.SeverityHigh,
			Reasons:      result.Reasons,
			Timestamp:    a.now().UTC(),
		})
	}

	report.Summary.PublicBuckets = len(findings)
	report.Findings = findings

	if len(findings) == 0 {
		a.logger.Info("no public S3 buckets found")
		a.publish(ctx, SubjectAllClear, allClearMessage(a.now()))
		return report
	}

	a.persistFindings(ctx, findings)
	a.publish(ctx, SubjectAlert, alertMessage(findings))
	return report
}

// persistFindings writes each finding independently. One finding's write
// failure must not block the others or the notification.
func (a *Auditor) persistFindings(ctx context.Context, findings []models.Finding) {
	for _, f := range findings {
		if err := a.store.Put(ctx, f); err != nil {
			a.logger.Error("storing finding failed", "bucket", f.BucketName, "error", err)
			continue
		}
		a.logger.Info("finding stored", "bucket", f.BucketName)
	}
}

// failRun handles a run-level error: log it and send a best-effort error
// notification. The run still completes with the fixed success descriptor.
func (a *Auditor) failRun(ctx context.Context, err error) {
	a.logger.Error("audit run failed", "error", err)
	a.publish(ctx, SubjectError,
		fmt.Sprintf("An error occurred during S3 public bucket audit: %v", err))
}

// publish delivers a notification, logging delivery failures instead of
// propagating them.
func (a *Auditor) publish(ctx context.Context, subject, message string) {
	if err := a.notifier.Publish(ctx, subject, message); err != nil {
		a.logger.Error("notification delivery failed", "subject", subject, "error", err)
		return
	}
	a.logger.Info("notification published", "subject", subject)
}

// alertMessage renders the multi-line alert body: a header with the finding
// count, then one block per finding.
func alertMessage(findings []models.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cloud Security Alert: Found %d potentially public S3 bucket(s)!\n\n", len(findings))
	for _, f := range findings {
		fmt.Fprintf(&b, "Bucket: %s\n", f.BucketName)
		fmt.Fprintf(&b, "Reasons: %s\n", strings.Join(f.Reasons, ", "))
		fmt.Fprintf(&b, "Timestamp: %s\n\n", f.Timestamp.Format(time.RFC3339))
	}
	return b.String()
}

// allClearMessage renders the body sent when no public buckets were found.
func allClearMessage(now time.Time) string {
	return fmt.Sprintf(
		"S3 public bucket audit completed at %s. No publicly accessible buckets found.",
		now.UTC().Format(time.RFC3339),
	)
}
