package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/example/bai2-encoder/pkg/bai2"
)

// EnvPrefix prefixes environment overrides, e.g. BAI2_FILE_SENDER_ID.
const EnvPrefix = "BAI2"

// Config represents the application configuration
type Config struct {
	LogLevel        string         `mapstructure:"log_level"`
	MetricsTextfile string         `mapstructure:"metrics_textfile"`
	File            FileConfig     `mapstructure:"file"`
	Encoding        EncodingConfig `mapstructure:"encoding"`
	Batch           BatchConfig    `mapstructure:"batch"`
}

// FileConfig holds the values of the file and group headers
type FileConfig struct {
	SenderID             string `mapstructure:"sender_id"`   // used when a statement has no routing number
	ReceiverID           string `mapstructure:"receiver_id"` // customer the file is addressed to
	FileID               string `mapstructure:"file_id"`
	PhysicalRecordLength string `mapstructure:"physical_record_length"`
	BlockSize            string `mapstructure:"block_size"`
	Version              string `mapstructure:"version"`
	GroupStatus          string `mapstructure:"group_status"`
	AsOfTime             string `mapstructure:"as_of_time"`
	AsOfDateModifier     string `mapstructure:"as_of_date_modifier"`
}

// EncodingConfig controls how statements become records
type EncodingConfig struct {
	Currency          string   `mapstructure:"currency"`
	FundsType         string   `mapstructure:"funds_type"`
	MaxTextLength     int      `mapstructure:"max_text_length"`
	SummaryCodes      []string `mapstructure:"summary_codes"`
	DefaultCreditCode string   `mapstructure:"default_credit_code"`
	DefaultDebitCode  string   `mapstructure:"default_debit_code"`
}

// BatchConfig controls the batch runner
type BatchConfig struct {
	Workers   int    `mapstructure:"workers"`
	OutputDir string `mapstructure:"output_dir"`
}

func setDefaults(v *viper.Viper) {
	d := bai2.DefaultOptions()

	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_textfile", "")

	v.SetDefault("file.sender_id", "")
	v.SetDefault("file.receiver_id", "")
	v.SetDefault("file.file_id", d.FileID)
	v.SetDefault("file.physical_record_length", "")
	v.SetDefault("file.block_size", "")
	v.SetDefault("file.version", d.Version)
	v.SetDefault("file.group_status", d.GroupStatus)
	v.SetDefault("file.as_of_time", "")
	v.SetDefault("file.as_of_date_modifier", d.AsOfDateModifier)

	v.SetDefault("encoding.currency", d.Currency)
	v.SetDefault("encoding.funds_type", d.FundsType)
	v.SetDefault("encoding.max_text_length", d.MaxTextLength)
	v.SetDefault("encoding.summary_codes", d.SummaryCodes)
	v.SetDefault("encoding.default_credit_code", d.DefaultCreditCode)
	v.SetDefault("encoding.default_debit_code", d.DefaultDebitCode)

	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.output_dir", ".")
}

// LoadConfig loads configuration from file and environment variables. An
// empty path uses defaults and environment variables only.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks values viper cannot check by type alone
func (c *Config) Validate() error {
	var errs []error
	if c.Batch.Workers < 1 {
		errs = append(errs, fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers))
	}
	if c.Encoding.MaxTextLength < 1 {
		errs = append(errs, fmt.Errorf("encoding.max_text_length must be at least 1, got %d", c.Encoding.MaxTextLength))
	}
	if c.Batch.OutputDir == "" {
		errs = append(errs, errors.New("batch.output_dir must not be empty"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	return errors.Join(errs...)
}

// EncoderOptions maps the configuration onto encoder options
func (c *Config) EncoderOptions() bai2.Options {
	return bai2.Options{
		SenderID:             c.File.SenderID,
		ReceiverID:           c.File.ReceiverID,
		FileID:               c.File.FileID,
		PhysicalRecordLength: c.File.PhysicalRecordLength,
		BlockSize:            c.File.BlockSize,
		Version:              c.File.Version,
		GroupStatus:          c.File.GroupStatus,
		AsOfTime:             c.File.AsOfTime,
		AsOfDateModifier:     c.File.AsOfDateModifier,
		Currency:             c.Encoding.Currency,
		FundsType:            c.Encoding.FundsType,
		MaxTextLength:        c.Encoding.MaxTextLength,
		SummaryCodes:         c.Encoding.SummaryCodes,
		DefaultCreditCode:    c.Encoding.DefaultCreditCode,
		DefaultDebitCode:     c.Encoding.DefaultDebitCode,
	}
}
