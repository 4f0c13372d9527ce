package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/dankkom/inmet-bdmep-data/internal/domain"
)

// Config holds all settings, populated from environment variables.
type Config struct {
	DataDir         string
	OutputDir       string
	PartitionLevel  domain.Granularity
	OutputFormat    string
	IncludeMetadata bool
	Years           []int

	SourceBaseURL string
	FetchTimeout  time.Duration

	Schedule        string
	RunTimeout      time.Duration
	ContinueOnError bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
	BatchSize    int

	// MinIO upload of written partitions.
	MinioEnabled   bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPrefix    string
	MinioRegion    string
}

// Output formats accepted by OUTPUT_FORMAT.
const (
	FormatCSV     = "csv"
	FormatXLSX    = "xlsx"
	FormatSQLite  = "sqlite"
	FormatParquet = "parquet"
)

const defaultSourceBase = "https://portal.inmet.gov.br/uploads/dadoshistoricos"

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	level, err := domain.ParseGranularity(sharedcfg.EnvOrDefault("PARTITION_LEVEL", "month"))
	if err != nil {
		return nil, fmt.Errorf("invalid PARTITION_LEVEL: %w", err)
	}

	format := sharedcfg.EnvOrDefault("OUTPUT_FORMAT", FormatCSV)
	if err := ValidateFormat(format); err != nil {
		return nil, fmt.Errorf("invalid OUTPUT_FORMAT: %w", err)
	}

	includeMetadata, err := parseBool("INCLUDE_METADATA", true)
	if err != nil {
		return nil, err
	}

	years, err := ExpandYears(os.Getenv("YEARS"))
	if err != nil {
		return nil, fmt.Errorf("invalid YEARS: %w", err)
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30m")
	if err != nil {
		return nil, err
	}
	runTimeout, err := parsePositiveDuration("RUN_TIMEOUT", "6h")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	continueOnError, err := parseBool("CONTINUE_ON_ERROR", false)
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	minioEnabled, err := parseBool("MINIO_ENABLED", minioEndpoint != "")
	if err != nil {
		return nil, err
	}
	minioUseSSL, err := parseBool("MINIO_USE_SSL", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:         sharedcfg.EnvOrDefault("DATA_DIR", "data/raw"),
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "data/processed"),
		PartitionLevel:  level,
		OutputFormat:    format,
		IncludeMetadata: includeMetadata,
		Years:           years,

		SourceBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("SOURCE_BASE_URL", defaultSourceBase), "/"),
		FetchTimeout:  fetchTimeout,

		Schedule:        sharedcfg.EnvOrDefault("SCHEDULE", "0 0 3 * * *"),
		RunTimeout:      runTimeout,
		ContinueOnError: continueOnError,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "inmet-observations"),
		BatchSize:    batchSize,

		MinioEnabled:   minioEnabled,
		MinioEndpoint:  minioEndpoint,
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    sharedcfg.EnvOrDefault("MINIO_BUCKET", "inmet-bdmep"),
		MinioUseSSL:    minioUseSSL,
		MinioPrefix:    strings.Trim(sharedcfg.EnvOrDefault("MINIO_PREFIX", "processed"), "/"),
		MinioRegion:    sharedcfg.EnvOrDefault("MINIO_REGION", "us-east-1"),
	}

	if err := ValidateLayout(cfg.OutputFormat, cfg.PartitionLevel); err != nil {
		return nil, fmt.Errorf("invalid OUTPUT_FORMAT: %w", err)
	}
	if cfg.SourceBaseURL == "" {
		return nil, errors.New("SOURCE_BASE_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}
	if cfg.MinioEnabled && cfg.MinioEndpoint == "" {
		return nil, errors.New("MINIO_ENABLED is true but MINIO_ENDPOINT is not set")
	}
	if cfg.MinioEnabled && cfg.MinioBucket == "" {
		return nil, errors.New("MINIO_ENABLED is true but MINIO_BUCKET is empty")
	}

	return cfg, nil
}

// ValidateFormat checks an output format name.
func ValidateFormat(format string) error {
	switch format {
	case FormatCSV, FormatXLSX, FormatSQLite, FormatParquet:
		return nil
	default:
		return fmt.Errorf("unknown format %q (allowed: csv, xlsx, sqlite, parquet)", format)
	}
}

// ValidateLayout rejects format and level pairs that cannot hold a partition.
// A yearly archive has millions of hourly rows, more than one XLSX sheet takes.
func ValidateLayout(format string, level domain.Granularity) error {
	if format == FormatXLSX && level == domain.ByYear {
		return errors.New("xlsx output needs PARTITION_LEVEL month or day: a year exceeds the sheet row limit")
	}
	return nil
}

// ExpandYears parses a year selection such as "2000:2003, 2010 2015". A
// "from:to" range is inclusive. Entries are separated by commas or spaces and
// returned in the order given.
func ExpandYears(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})

	var years []int
	for _, f := range fields {
		from, to, isRange := strings.Cut(f, ":")
		start, err := parseYear(from)
		if err != nil {
			return nil, err
		}
		if !isRange {
			years = append(years, start)
			continue
		}
		end, err := parseYear(to)
		if err != nil {
			return nil, err
		}
		if end < start {
			return nil, fmt.Errorf("reversed year range %q", f)
		}
		for y := start; y <= end; y++ {
			years = append(years, y)
		}
	}
	return years, nil
}

func parseYear(s string) (int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || y < 1000 || y > 9999 {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return y, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}
