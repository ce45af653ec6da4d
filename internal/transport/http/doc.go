// Package http implements the HTTP request handlers for the freight
// baseline service. Handlers stay thin: they parse requests, delegate
// to the service layer, and translate service errors into RFC 7807
// problem responses.
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Repository
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
package http
