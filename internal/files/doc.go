// Package files provides upload storage and workbook discovery.
//
// Manager persists uploaded workbook bytes under the configured uploads
// directory, keyed by upload ID so filenames from different customers
// never collide. Discovery walks a directory for processable workbooks,
// used by the batch ingester to pick up dropped files.
package files
