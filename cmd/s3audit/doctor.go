package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"

	"github.com/cloudsentry/s3audit/internal/config"
	"github.com/cloudsentry/s3audit/internal/notify"
	"github.com/cloudsentry/s3audit/internal/providers/aws/common"
	"github.com/cloudsentry/s3audit/internal/store"
)

// DoctorResult is the structured output of s3audit doctor. It can be
// serialised to JSON via --format=json or rendered as a human-readable
// listing (default).
type DoctorResult struct {
	Config struct {
		Valid bool   `json:"valid"`
		Error string `json:"error,omitempty"`
	} `json:"config"`

	AWS struct {
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		AccountID   string `json:"account_id,omitempty"`
		Error       string `json:"error,omitempty"`
	} `json:"aws"`

	SNS struct {
		TopicARN  string `json:"topic_arn,omitempty"`
		Reachable bool   `json:"reachable"`
		Error     string `json:"error,omitempty"`
	} `json:"sns"`

	DynamoDB struct {
		Table     string `json:"table,omitempty"`
		Reachable bool   `json:"reachable"`
		Error     string `json:"error,omitempty"`
	} `json:"dynamodb"`

	OverallHealthy bool `json:"overall_healthy"`
}

// pinger is a collaborator connectivity check.
type pinger interface {
	Ping(ctx context.Context) error
}

// pingerFactory builds the SNS and DynamoDB pingers for the resolved AWS
// config. Tests inject stubs.
type pingerFactory func(awsCfg aws.Config, cfg *config.Config) (topic, table pinger)

// defaultPingers builds production pingers from the real collaborators.
func defaultPingers(awsCfg aws.Config, cfg *config.Config) (topic, table pinger) {
	return notify.NewSNSNotifier(awsCfg, cfg.TopicARN),
		store.NewDynamoDBStore(awsCfg, cfg.TableName)
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Run environment diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			profile, _ := cmd.Flags().GetString("profile")

			cfg := config.FromEnv()
			cfg.Profile = profile

			result := runDoctor(
				cmd.Context(),
				common.NewDefaultAWSClientProvider(),
				defaultPingers,
				cfg,
			)

			if format == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				printDoctor(os.Stdout, result)
			}
			if !result.OverallHealthy {
				return fmt.Errorf("environment is not healthy")
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", "Output format: json or table")
	cmd.Flags().String("profile", "", "AWS profile name")
	return cmd
}

// runDoctor checks configuration, AWS credentials, the notification topic,
// and the findings table. Checks run independently: a failed credential
// check still reports the configuration result, but skips the collaborator
// pings since no clients can be built without credentials.
func runDoctor(
	ctx context.Context,
	provider common.AWSClientProvider,
	pingers pingerFactory,
	cfg *config.Config,
) DoctorResult {
	var result DoctorResult

	if err := cfg.Validate(); err != nil {
		result.Config.Error = err.Error()
	} else {
		result.Config.Valid = true
	}
	result.SNS.TopicARN = cfg.TopicARN
	result.DynamoDB.Table = cfg.TableName

	profileCfg, err := provider.LoadProfile(ctx, cfg.Profile)
	if err != nil {
		result.AWS.Profile = cfg.Profile
		result.AWS.Error = err.Error()
		return result
	}
	result.AWS.Profile = profileCfg.ProfileName
	result.AWS.Credentials = true
	result.AWS.AccountID = profileCfg.AccountID

	topic, table := pingers(profileCfg.Config, cfg)
	if cfg.TopicARN != "" {
		if err := topic.Ping(ctx); err != nil {
			result.SNS.Error = err.Error()
		} else {
			result.SNS.Reachable = true
		}
	}
	if cfg.TableName != "" {
		if err := table.Ping(ctx); err != nil {
			result.DynamoDB.Error = err.Error()
		} else {
			result.DynamoDB.Reachable = true
		}
	}

	result.OverallHealthy = result.Config.Valid &&
		result.AWS.Credentials &&
		result.SNS.Reachable &&
		result.DynamoDB.Reachable
	return result
}

// printDoctor renders the diagnostics as a human-readable listing.
func printDoctor(w io.Writer, r DoctorResult) {
	status := func(ok bool, errMsg string) string {
		if ok {
			return "OK"
		}
		if errMsg == "" {
			return "FAIL"
		}
		return "FAIL (" + errMsg + ")"
	}

	fmt.Fprintf(w, "Config:    %s\n", status(r.Config.Valid, r.Config.Error))
	fmt.Fprintf(w, "AWS:       %s", status(r.AWS.Credentials, r.AWS.Error))
	if r.AWS.Credentials {
		fmt.Fprintf(w, "  (profile %s, account %s)", r.AWS.Profile, r.AWS.AccountID)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "SNS:       %s\n", status(r.SNS.Reachable, r.SNS.Error))
	fmt.Fprintf(w, "DynamoDB:  %s\n", status(r.DynamoDB.Reachable, r.DynamoDB.Error))
	if r.OverallHealthy {
		fmt.Fprintln(w, "\nEnvironment is healthy.")
	} else {
		fmt.Fprintln(w, "\nEnvironment is NOT healthy.")
	}
}
