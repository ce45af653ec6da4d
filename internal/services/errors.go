package services

import "errors"

// Service-level errors handlers map to HTTP problem responses.
var (
	ErrFileNotFound    = errors.New("uploaded file not found")
	ErrInvalidFileType = errors.New("unsupported file type")
	ErrEmptyUpload     = errors.New("uploaded file is empty")
	ErrUploadTooLarge  = errors.New("payload too large")
	ErrQueueFull       = errors.New("service temporarily unavailable: extraction queue is full")

	ErrNoMappingsFound = errors.New("no header mappings found")

	ErrInvalidInput       = errors.New("invalid input")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
