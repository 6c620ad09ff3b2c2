package ports

import "context"

// SignedRequest is an inbound callback as received: the exact body bytes, the
// signature header value, and the public URL it was delivered to.
type SignedRequest struct {
	Body      []byte
	Signature string
	URL       string
}

// SignatureVerifier authenticates a SignedRequest. Any non-nil error means the
// request must be rejected.
type SignatureVerifier interface {
	Verify(ctx context.Context, req SignedRequest) error
}
