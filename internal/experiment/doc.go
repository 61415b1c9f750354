// Package experiment runs the paired cross-validation comparison. Each outer
// stratified fold is normalized on its train rows, every feature-set
// configuration is tuned and scored on it, and the clinical reference is
// scored on the raw values. One performance record is kept per
// (configuration, fold).
package experiment
