package billing

import "errors"

// Permanent rejections. Resending the same payload cannot succeed, so the
// webhook controller maps these to 4xx and keeps them cheap to produce.
var (
	// ErrAuthenticationRejected means the shared-secret key did not match.
	ErrAuthenticationRejected = errors.New("webhook api key rejected")

	// ErrMalformedEvent means a required field (email, product code, event
	// name or transaction id) was missing from the payload.
	ErrMalformedEvent = errors.New("webhook event is missing required fields")
)

// Any other error out of Service.Apply is a transient persistence failure:
// no partial writes were left behind and the sender may retry.
