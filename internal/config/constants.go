package config

// Application constants
const (
	AppName   = "mrs-dl"
	EnvPrefix = "MRS"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/mrs.log"

	// Dataset defaults match the paired comparison study
	DefaultTargetColumn = "binary_rankin"
	SetColumnAll        = "all"
	DefaultKeepStage    = "ttest"
	DefaultGateColumn   = "NCCT"
	DefaultGateValue    = "OK"
	DefaultSeed         = 42

	DefaultFolds            = 10
	DefaultSearchIterations = 40
	DefaultInnerFolds       = 5
	DefaultMetric           = "f1"
	DefaultRunPrefix        = "ttest"
	DefaultResultsDir       = "results"

	MetricsEndpoint = "/metrics"
	HealthEndpoint  = "/healthz"
)
