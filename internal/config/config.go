package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "github.com/GravO8/mrs-dl/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Dataset    DatasetConfig    `yaml:"dataset" envconfig:"DATASET"`
	Experiment ExperimentConfig `yaml:"experiment" envconfig:"EXPERIMENT"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// DatasetConfig controls how the raw table is read, preprocessed and split
// into named subsets
type DatasetConfig struct {
	Path         string `yaml:"path" envconfig:"DATA_FILE"`
	RegistryFile string `yaml:"registry_file" envconfig:"REGISTRY_FILE"`
	TargetColumn string `yaml:"target_column" envconfig:"TARGET_COLUMN" validate:"required"`
	// SetColumn names the column holding train/val/test assignments; "all"
	// puts every row in train.
	SetColumn     string   `yaml:"set_column" envconfig:"SET_COLUMN" validate:"required"`
	JoinTrainVal  bool     `yaml:"join_train_val" envconfig:"JOIN_TRAIN_VAL"`
	JoinTrainTest bool     `yaml:"join_train_test" envconfig:"JOIN_TRAIN_TEST"`
	Reshuffle     bool     `yaml:"reshuffle" envconfig:"RESHUFFLE"`
	Seed          int64    `yaml:"seed" envconfig:"SEED"`
	Normalize     bool     `yaml:"normalize" envconfig:"NORMALIZE"`
	KeepStage     string   `yaml:"keep_stage" envconfig:"KEEP_STAGE" validate:"required_without=KeepColumns"`
	KeepColumns   []string `yaml:"keep_columns" envconfig:"KEEP_COLUMNS"`
	EmptyValues   string   `yaml:"empty_values" envconfig:"EMPTY_VALUES" validate:"oneof=amputate mean none"`

	FilterOutNoNCCT    bool     `yaml:"filter_out_no_ncct" envconfig:"FILTER_OUT_NO_NCCT"`
	GateColumn         string   `yaml:"gate_column" envconfig:"GATE_COLUMN" validate:"required_if=FilterOutNoNCCT true"`
	GateValue          string   `yaml:"gate_value" envconfig:"GATE_VALUE"`
	FilterNonWitnessed bool     `yaml:"filter_non_witnessed" envconfig:"FILTER_NON_WITNESSED"`
	RemoveOutliers     bool     `yaml:"remove_outliers" envconfig:"REMOVE_OUTLIERS"`
	MissingMarkers     []string `yaml:"missing_markers" envconfig:"MISSING_MARKERS"`
}

// FeatureSetConfig is a named column selection evaluated by the fold driver
type FeatureSetConfig struct {
	Name    string   `yaml:"name" validate:"required"`
	Columns []string `yaml:"columns" validate:"min=1,dive,required"`
}

// ExperimentConfig controls the stratified cross-validation run
type ExperimentConfig struct {
	Folds            int    `yaml:"folds" envconfig:"FOLDS" validate:"min=2"`
	SearchIterations int    `yaml:"search_iterations" envconfig:"SEARCH_ITERATIONS" validate:"min=1"`
	InnerFolds       int    `yaml:"inner_folds" envconfig:"INNER_FOLDS" validate:"min=2"`
	Metric           string `yaml:"metric" envconfig:"METRIC" validate:"oneof=f1 accuracy precision recall roc_auc balanced_accuracy"`
	RunPrefix        string `yaml:"run_prefix" envconfig:"RUN_PREFIX" validate:"required"`
	Parallelism      int    `yaml:"parallelism" envconfig:"PARALLELISM" validate:"min=1"`
	Seed             int64  `yaml:"seed" envconfig:"SEED"`
	ResultsDir       string `yaml:"results_dir" envconfig:"RESULTS_DIR" validate:"required"`
	Reference        bool   `yaml:"reference" envconfig:"REFERENCE"`
	// FeatureSets overrides the built-in configurations when non-empty
	FeatureSets []FeatureSetConfig `yaml:"feature_sets" ignored:"true" validate:"dive"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	MetricsAddr    string `yaml:"metrics_addr" envconfig:"METRICS_ADDR" validate:"omitempty,hostname_port"`
	Environment    string `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// Load builds the configuration from defaults, then the YAML file at path (or
// the first file found in the usual locations when path is empty), then MRS_*
// environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config from %s", path), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML document onto cfg; absent keys keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// Validate checks struct constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}
	return nil
}

func getConfigFilePath() string {
	locations := []string{
		"mrs.yaml",
		"configs/mrs.yaml",
		"../configs/mrs.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns the configuration of the paired comparison run
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Dataset: DatasetConfig{
			TargetColumn:  DefaultTargetColumn,
			SetColumn:     SetColumnAll,
			JoinTrainVal:  true,
			JoinTrainTest: true,
			Reshuffle:     true,
			Seed:          DefaultSeed,
			KeepStage:     DefaultKeepStage,
			EmptyValues:   "amputate",
			GateColumn:    DefaultGateColumn,
			GateValue:     DefaultGateValue,
		},
		Experiment: ExperimentConfig{
			Folds:            DefaultFolds,
			SearchIterations: DefaultSearchIterations,
			InnerFolds:       DefaultInnerFolds,
			Metric:           DefaultMetric,
			RunPrefix:        DefaultRunPrefix,
			Parallelism:      1,
			Seed:             DefaultSeed,
			ResultsDir:       DefaultResultsDir,
			Reference:        true,
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "none",
			Environment:    "development",
		},
	}
}
