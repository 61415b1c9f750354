// Package app wires the shared pieces of the command line tools: configuration,
// logging, OpenTelemetry providers, the column registry and the preprocessor,
// plus the optional telemetry HTTP server.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, the YAML file and MRS_* variables
//	2. Initialize logging and observability
//	3. Load the registry, layering the override file on the defaults
//	4. Create the preprocessor with the registry and metrics injected
//
// Close releases everything in reverse order.
package app
