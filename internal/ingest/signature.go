// Package ingest implements the ambient webhook boundary (signature
// verification), the Event Normalizer (C1), and the Event Dispatcher (C9)
// that fans a normalized DomainEvent out to the Reputation Policies (C6)
// and the Moment Curator (C8).
package ingest

import (
	"github.com/google/go-github/v57/github"
)

// VerifySignature checks the X-Hub-Signature-256 header against the raw
// request body using the webhook's shared secret. This sits ahead of the
// Normalizer in the request path and is out of the reputation core's
// scope, but must exist before any payload reaches C1 (SPEC_FULL.md
// AMBIENT STACK). Delegates to go-github's own constant-time comparison.
func VerifySignature(signatureHeader string, payload, secret []byte) error {
	return github.ValidateSignature(signatureHeader, payload, secret)
}
