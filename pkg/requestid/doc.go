// Package requestid correlates log records of one HTTP request.
//
// Middleware reuses a well-formed X-Request-ID header from the client or
// generates a UUID, echoes it in the response and stores it in the request
// context. LoggerExtractor feeds it into the logger's context extractors:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
package requestid
