// Package config provides configuration management for the preprocessing and
// experiment tools.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern MRS_<SECTION>_<FIELD>:
//
//	MRS_LOGGING_LEVEL=debug
//	MRS_DATASET_TARGET_COLUMN=binary_rankin
//	MRS_DATASET_EMPTY_VALUES=mean
//	MRS_EXPERIMENT_FOLDS=10
//	MRS_TELEMETRY_METRICS_ADDR=:9090
//	MRS_DATASET_DATA_FILE=data/table_data.csv
//
// Feature-set lists can only be set from the YAML file.
//
// # Usage
//
//	cfg, err := config.Load(*configPath)
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
