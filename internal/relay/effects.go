// Package relay accepts inbound messages, publishes them to the hub, and
// drives the downstream side effects.
package relay

import "context"

// Effect names used in results, logs, and metrics.
const (
	EffectMint     = "mint"
	EffectSnapshot = "snapshot"
	EffectArchive  = "archive"
)

// Minter submits the chain mint transaction for a message's wallet and
// returns the transaction hash.
type Minter interface {
	Mint(ctx context.Context, wallet string) (string, error)
}

// ObjectSink stores a payload under a caller-chosen key and returns its
// location.
type ObjectSink interface {
	Put(ctx context.Context, key string, payload []byte, contentType string) (string, error)
}

// ContentSink stores a payload in content-addressed storage and returns its
// content identifier.
type ContentSink interface {
	Add(ctx context.Context, payload []byte) (string, error)
}

// EffectRecorder observes per-effect outcomes, typically for metrics.
type EffectRecorder interface {
	RecordEffect(effect string, ok bool)
}

// EffectResult is the outcome of one side effect. Ref carries the tx hash,
// object location, or content identifier on success.
type EffectResult struct {
	OK    bool   `json:"ok"`
	Ref   string `json:"ref,omitempty"`
	Error string `json:"error,omitempty"`
}

// IngestResult reports whether the message was broadcast and how each side
// effect fared. Effect failures never retract the broadcast.
type IngestResult struct {
	Published bool         `json:"published"`
	Mint      EffectResult `json:"mint"`
	Snapshot  EffectResult `json:"snapshot"`
	Archive   EffectResult `json:"archive"`
}
