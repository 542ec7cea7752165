// Package fileutil lists PDFs and creates the timestamp-named output files
// (review datasets, rename logs) without clobbering earlier runs.
package fileutil
