// Package config holds the runtime configuration for the auditor. The
// configuration is constructed once at process start and passed by
// reference; there are no package-level singletons.
package config

import (
	"fmt"
	"os"
)

// Environment variable names, shared by the CLI and the Lambda entry point.
const (
	EnvTopicARN  = "SNS_TOPIC_ARN"
	EnvTableName = "DYNAMODB_TABLE_NAME"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
)

// Config is the top-level application configuration.
type Config struct {
	// TopicARN is the SNS topic that receives alert, all-clear, and error
	// notifications. Required.
	TopicARN string `json:"topic_arn"`

	// TableName is the DynamoDB table findings are persisted to. Required.
	TableName string `json:"table_name"`

	// Profile is the AWS profile name. Empty means the default profile.
	Profile string `json:"profile,omitempty"`

	// Region overrides the profile's home region when set.
	Region string `json:"region,omitempty"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `json:"log_level,omitempty"`

	// LogFormat is "json" or "text". Defaults to json.
	LogFormat string `json:"log_format,omitempty"`
}

// FromEnv builds a Config from the process environment. It does not
// validate; call Validate before use.
func FromEnv() *Config {
	return &Config{
		TopicARN:  os.Getenv(EnvTopicARN),
		TableName: os.Getenv(EnvTableName),
		LogLevel:  os.Getenv(EnvLogLevel),
		LogFormat: os.Getenv(EnvLogFormat),
	}
}

// Validate reports missing required settings. A missing notification topic
// or findings table is a fatal startup condition: the process must refuse
// to run rather than audit without a reporting path.
func (c *Config) Validate() error {
	switch {
	case c.TopicARN == "" && c.TableName == "":
		return fmt.Errorf("%s and %s are not set", EnvTopicARN, EnvTableName)
	case c.TopicARN == "":
		return fmt.Errorf("%s is not set", EnvTopicARN)
	case c.TableName == "":
		return fmt.Errorf("%s is not set", EnvTableName)
	}
	return nil
}
