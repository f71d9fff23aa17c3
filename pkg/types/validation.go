package types

import (
	"encoding/json"
)

// ParseInbound decodes a raw frame into an inbound envelope and checks that
// it carries a known client-to-server tag. Unknown or unparseable frames are
// rejected without the caller mutating any state.
func ParseInbound(raw []byte) (*InboundEnvelope, error) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, ErrMalformedEnvelope
	}

	switch envelope.Type {
	case EnvelopeTypeJoin, EnvelopeTypeMessage:
		return &envelope, nil
	default:
		return nil, ErrUnknownEnvelopeType
	}
}
