package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cloudsentry/s3audit/internal/config"
	"github.com/cloudsentry/s3audit/internal/models"
)

func TestBuildRunConfig_EnvOnly(t *testing.T) {
	t.Setenv(config.EnvTopicARN, "arn:env")
	t.Setenv(config.EnvTableName, "env-table")
	t.Setenv(config.EnvLogLevel, "warn")

	cfg := buildRunConfig(runFlags{})
	if cfg.TopicARN != "arn:env" || cfg.TableName != "env-table" {
		t.Errorf("env values not picked up: %+v", cfg)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level: got %q", cfg.LogLevel)
	}
}

func TestBuildRunConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv(config.EnvTopicARN, "arn:env")
	t.Setenv(config.EnvTableName, "env-table")

	cfg := buildRunConfig(runFlags{
		topicARN:  "arn:flag",
		tableName: "flag-table",
		profile:   "prod",
		region:    "eu-west-1",
	})
	if cfg.TopicARN != "arn:flag" {
		t.Errorf("topic: got %q; flag must win over env", cfg.TopicARN)
	}
	if cfg.TableName != "flag-table" {
		t.Errorf("table: got %q; flag must win over env", cfg.TableName)
	}
	if cfg.Profile != "prod" || cfg.Region != "eu-west-1" {
		t.Errorf("profile/region: got %q/%q", cfg.Profile, cfg.Region)
	}
}

func sampleReport() *models.AuditReport {
	return &models.AuditReport{
		ReportID:    "s3audit-test",
		GeneratedAt: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		Profile:     "prod",
		AccountID:   "111122223333",
		Summary: models.AuditSummary{
			BucketsScanned: 3,
			BucketsSkipped: 1,
			PublicBuckets:  1,
		},
		Findings: []models.Finding{
			{
				ID:           "S3_PUBLIC_EXPOSURE-demo-public",
				RuleID:       models.RulePublicExposure,
				BucketName:   "demo-public",
				ResourceType: models.ResourceS3Bucket,
				AccountID:    "111122223333",
				Severity:     models.SeverityHigh,
				Reasons:      []string{"ACL grants AllUsers access."},
				Timestamp:    time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
			},
		},
	}
}

func TestPrintTable_SummaryHeader(t *testing.T) {
	var b strings.Builder
	printTable(&b, sampleReport())
	out := b.String()

	for _, want := range []string{"prod", "111122223333", "Scanned: 3", "Skipped: 1", "Public: 1", "demo-public"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteReportToFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := writeReportToFile(path, sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var got models.AuditReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("report file is not valid JSON: %v", err)
	}
	if got.ReportID != "s3audit-test" || len(got.Findings) != 1 {
		t.Errorf("round trip lost data: %+v", got)
	}
}

func TestWriteReportToFile_BadPath(t *testing.T) {
	err := writeReportToFile(filepath.Join(t.TempDir(), "missing", "report.json"), sampleReport())
	if err == nil {
		t.Fatal("want error for unwritable path")
	}
}
