// Package httperr maps errors onto HTTP status codes and writes them as a
// uniform JSON envelope.
//
//	httperr.Write(w, httperr.ErrUnauthorized)
//	httperr.Write(w, httperr.New(http.StatusTooManyRequests, "rate_limited").
//	    WithDetail("resetAt", reset.UnixMilli()))
//
// Any error that is not an HTTPError is reported as 500 without leaking its
// message to the client.
package httperr
