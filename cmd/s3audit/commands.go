package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudsentry/s3audit/internal/audit"
	"github.com/cloudsentry/s3audit/internal/config"
	"github.com/cloudsentry/s3audit/internal/logging"
	"github.com/cloudsentry/s3audit/internal/models"
	"github.com/cloudsentry/s3audit/internal/notify"
	"github.com/cloudsentry/s3audit/internal/output"
	"github.com/cloudsentry/s3audit/internal/providers/aws/common"
	"github.com/cloudsentry/s3audit/internal/providers/aws/s3inspect"
	"github.com/cloudsentry/s3audit/internal/store"
	"github.com/cloudsentry/s3audit/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "s3audit",
		Short: "Detect publicly exposed S3 buckets",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// runFlags are the run command's flag values. Flags override the
// corresponding environment variables.
type runFlags struct {
	topicARN  string
	tableName string
	profile   string
	region    string
	reportFmt string
	outFile   string
	logLevel  string
	logFormat string
}

// buildRunConfig merges environment configuration with flag overrides.
func buildRunConfig(flags runFlags) *config.Config {
	cfg := config.FromEnv()
	if flags.topicARN != "" {
		cfg.TopicARN = flags.topicARN
	}
	if flags.tableName != "" {
		cfg.TableName = flags.tableName
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.LogFormat = flags.logFormat
	}
	cfg.Profile = flags.profile
	cfg.Region = flags.region
	return cfg
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Audit all S3 buckets in the account for public exposure",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := buildRunConfig(flags)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

			provider := common.NewDefaultAWSClientProvider()
			profileCfg, err := provider.LoadProfile(cmd.Context(), cfg.Profile)
			if err != nil {
				return err
			}
			awsCfg := profileCfg.Config
			if cfg.Region != "" {
				awsCfg.Region = cfg.Region
			}

			auditor := audit.NewAuditor(
				s3inspect.NewInspector(awsCfg),
				store.NewDynamoDBStore(awsCfg, cfg.TableName),
				notify.NewSNSNotifier(awsCfg, cfg.TopicARN),
				logger,
				profileCfg.AccountID,
			)

			report, _ := auditor.Run(cmd.Context())
			report.Profile = profileCfg.ProfileName

			if flags.outFile != "" {
				if err := writeReportToFile(flags.outFile, report); err != nil {
					return err
				}
			}
			if flags.reportFmt == "json" {
				return printJSON(report)
			}
			printTable(os.Stdout, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.topicARN, "topic-arn", "", "SNS topic ARN for notifications (default: $SNS_TOPIC_ARN)")
	cmd.Flags().StringVar(&flags.tableName, "table", "", "DynamoDB findings table name (default: $DYNAMODB_TABLE_NAME)")
	cmd.Flags().StringVar(&flags.profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().StringVar(&flags.region, "region", "", "AWS region override for service clients")
	cmd.Flags().StringVar(&flags.reportFmt, "report", "table", "Output format: json or table")
	cmd.Flags().StringVar(&flags.outFile, "output", "", "Write full JSON report to this file path (in addition to stdout output)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $LOG_LEVEL or info)")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "", "Log format: json or text (default: $LOG_FORMAT or json)")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

// printJSON writes the report as indented JSON to stdout.
func printJSON(report *models.AuditReport) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeReportToFile serialises report as indented JSON and writes it to path,
// creating or overwriting the file. It does not affect stdout output.
func writeReportToFile(path string, report *models.AuditReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report file %q: %w", path, err)
	}
	return nil
}

// printTable renders a human-readable summary header followed by the
// findings table.
func printTable(w io.Writer, report *models.AuditReport) {
	s := report.Summary
	fmt.Fprintf(w,
		"Profile: %-20s  Account: %-14s  Scanned: %d  Skipped: %d  Public: %d\n\n",
		report.Profile,
		report.AccountID,
		s.BucketsScanned,
		s.BucketsSkipped,
		s.PublicBuckets,
	)
	output.RenderTable(w, report.Findings, output.TableOptions{})
}
