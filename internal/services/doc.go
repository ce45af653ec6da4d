// Package services implements the business logic layer between the HTTP
// handlers and the storage/extraction packages.
//
// Services follow these architectural principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Domain-focused methods that encapsulate business rules
//
// The package provides these core services:
//
//	- ExtractionService: upload validation, registration, and queued processing
//	- BaselineService: on-demand baseline aggregation and CSV export
//	- MappingService: read access to learned header mappings
//	- HealthService: system health checks
//
// Services return domain-specific errors that handlers transform into
// RFC 7807 responses.
package services
