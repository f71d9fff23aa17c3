package types

import "errors"

// Envelope parsing errors
var (
	ErrMalformedEnvelope   = errors.New("malformed envelope")
	ErrUnknownEnvelopeType = errors.New("unknown envelope type")
)
