package models

import "time"

// Severity represents the impact level of a finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// ResourceType identifies the kind of cloud resource a finding refers to.
type ResourceType string

// ResourceS3Bucket is the only resource type this auditor produces today.
// The type exists so findings stay compatible with multi-resource tooling.
const ResourceS3Bucket ResourceType = "S3_BUCKET"

// RulePublicExposure is the rule identifier stamped on every finding emitted
// by the exposure classifier.
const RulePublicExposure = "S3_PUBLIC_EXPOSURE"

// Finding records one publicly exposed bucket detected during a single audit
// run. Findings are immutable after creation: each run produces a fresh,
// independent set, keyed in the store by (BucketName, Timestamp).
type Finding struct {
	ID           string       `json:"id"`
	RuleID       string       `json:"rule_id"`
	BucketName   string       `json:"bucket_name"`
	ResourceType ResourceType `json:"resource_type"`
	AccountID    string       `json:"account_id,omitempty"`
	Severity     Severity     `json:"severity"`

	// Reasons holds one human-readable entry per triggered check, in check
	// order (public access block, ACL, bucket policy).
	Reasons []string `json:"reasons"`

	// Timestamp is the detection time for this run.
	Timestamp time.Time `json:"timestamp"`
}

// AuditSummary aggregates per-run counters across all scanned buckets.
type AuditSummary struct {
	BucketsScanned int `json:"buckets_scanned"`

	// BucketsSkipped counts buckets excluded because their public-access
	// block configuration could not be retrieved.
	BucketsSkipped int `json:"buckets_skipped"`

	PublicBuckets int `json:"public_buckets"`
}

// AuditReport is the top-level output of one audit run, rendered by the CLI
// as a table or JSON. Notification and persistence do not depend on it.
type AuditReport struct {
	ReportID    string       `json:"report_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Profile     string       `json:"profile,omitempty"`
	AccountID   string       `json:"account_id,omitempty"`
	Summary     AuditSummary `json:"summary"`
	Findings    []Finding    `json:"findings"`
}
