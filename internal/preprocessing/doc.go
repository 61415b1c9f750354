// Package preprocessing turns a raw stroke-trial table into usable covariates.
//
// The default chain is:
//
//	filter_gate (optional) → derive_variables → decode_sequences → compact
//
// Every stage receives the table from the previous one, may mutate it, and
// returns the table the next stage sees. Row-level inconsistencies (malformed
// dates, inverted timestamps, corrupt packed sequences) never fail a stage:
// they become Missing and are counted on the StageState. Missing columns and
// unknown stage names are configuration errors.
//
// The validity pass (RemoveOutliers) is opt-in and runs outside the default chain.
package preprocessing
