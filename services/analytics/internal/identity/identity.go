// Package identity derives the stable pseudonymous viewer id from an
// inbound request, minting one when the request carries no credential.
// Malformed credentials are treated as absent, never as errors.
package identity

import "net/http"

// Resolver is one credential transport (cookie, bearer token, ...).
type Resolver interface {
	// Identify returns the user id for r, minting a fresh identity and
	// attaching its credential to w when none is present.
	Identify(w http.ResponseWriter, r *http.Request) string
	// Peek returns the user id for r without ever minting.
	Peek(r *http.Request) (string, bool)
}
