// Package observability provides structured, zap-based logging for the
// catalog assistant. Log level and encoding (json or console) are driven by
// configuration; request IDs are attached by the HTTP middleware and carried
// as contextual fields.
package observability
