// Package exporter provides CSV export functionality for audit reports.
//
// CSVWriter is the core writer with header, streaming, and UTF-8 BOM
// support for Excel compatibility. BaselineExporter builds on it to
// produce the baseline summary, per-file source, and per-tab breakdown
// reports under the configured reports directory.
package exporter
