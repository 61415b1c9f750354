// Package results persists the performance records of a paired run: an
// append-only CSV log written as records arrive, and after the run an xlsx
// workbook of per-fold metrics and a box plot of one metric.
package results
