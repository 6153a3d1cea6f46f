// Package requestid tags every bridge request with a correlation id.
//
// Middleware reuses a well-formed X-Request-ID header sent by the caller,
// typically the Rails application or a proxy in front of it, and otherwise
// generates a UUIDv4. The id is stored in the request context and echoed in
// the response header. Extractor exposes it to the logger so every record
// written while handling the request carries request_id.
package requestid
