// Package app provides application initialization and lifecycle management
// for the freight baseline service. It wires configuration, storage, the
// extraction queue, and the HTTP surface together at startup and handles
// graceful shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize logging and observability
//	3. Open the SQLite store and repositories
//	4. Initialize services with their dependencies
//	5. Set up HTTP handlers and middleware
//	6. Configure the HTTP server
//
// # Graceful Shutdown
//
// Stop shuts the server down first so no new extraction jobs arrive, then
// drains the job queue, flushes telemetry, and closes the database. All
// initialization errors are returned to the caller; the package never
// calls os.Exit() itself.
package app
