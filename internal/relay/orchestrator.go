package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chainchat-dev/chainchat-server/internal/core"
)

// DefaultEffectTimeout bounds each side effect's round trip unless
// configured otherwise.
const DefaultEffectTimeout = 30 * time.Second

const snapshotContentType = "application/json"

// marshalMessage is swapped in tests to exercise encode failures.
var marshalMessage = json.Marshal

// Orchestrator validates an inbound message, publishes it to the hub, then
// drives the three side effects concurrently. Broadcast delivery completes
// before any effect starts and is never rolled back.
type Orchestrator struct {
	hub       *core.Hub
	minter    Minter
	snapshots ObjectSink
	archive   ContentSink
	timeout   time.Duration
	recorder  EffectRecorder
	log       *zerolog.Logger
}

// NewOrchestrator wires the hub and the three effect backends. recorder may
// be nil.
func NewOrchestrator(hub *core.Hub, minter Minter, snapshots ObjectSink, archive ContentSink, timeout time.Duration, recorder EffectRecorder, logger *zerolog.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultEffectTimeout
	}
	return &Orchestrator{
		hub:       hub,
		minter:    minter,
		snapshots: snapshots,
		archive:   archive,
		timeout:   timeout,
		recorder:  recorder,
		log:       logger,
	}
}

// Ingest runs the full pipeline for one message. A validation failure
// returns the error and nothing else happens. Otherwise the message is
// published, the effects run, and the aggregate result comes back with a
// nil error regardless of effect outcomes.
func (o *Orchestrator) Ingest(ctx context.Context, msg core.Message) (IngestResult, error) {
	if err := msg.Validate(); err != nil {
		return IngestResult{}, err
	}
	msg.SentAt = time.Now().UTC()

	o.hub.Publish(msg)
	res := IngestResult{Published: true}

	payload, err := marshalMessage(msg)
	if err != nil {
		res.Snapshot = EffectResult{Error: err.Error()}
		res.Archive = EffectResult{Error: err.Error()}
		if o.recorder != nil {
			o.recorder.RecordEffect(EffectSnapshot, false)
			o.recorder.RecordEffect(EffectArchive, false)
		}
		o.log.Error().Err(err).Str("room", msg.Room).Msg("encode message payload")
	}

	// Submitted transactions cannot be aborted, so effects keep running on
	// their own timeout even if the caller goes away.
	base := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	run := func(target *EffectResult, effect string, fn func(context.Context) (string, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			effectCtx, cancel := context.WithTimeout(base, o.timeout)
			defer cancel()

			ref, err := fn(effectCtx)
			if err != nil {
				*target = EffectResult{Error: err.Error()}
				o.log.Error().Err(err).Str("effect", effect).Str("room", msg.Room).Msg("side effect failed")
			} else {
				*target = EffectResult{OK: true, Ref: ref}
			}
			if o.recorder != nil {
				o.recorder.RecordEffect(effect, err == nil)
			}
		}()
	}

	run(&res.Mint, EffectMint, func(ctx context.Context) (string, error) {
		return o.minter.Mint(ctx, msg.Wallet)
	})
	if err == nil {
		key := snapshotKey(msg)
		run(&res.Snapshot, EffectSnapshot, func(ctx context.Context) (string, error) {
			return o.snapshots.Put(ctx, key, payload, snapshotContentType)
		})
		run(&res.Archive, EffectArchive, func(ctx context.Context) (string, error) {
			return o.archive.Add(ctx, payload)
		})
	}

	wg.Wait()
	return res, nil
}

// snapshotKey derives a collision-free object key: repeated identical
// messages still get distinct snapshots.
func snapshotKey(msg core.Message) string {
	return fmt.Sprintf("messages/%s/%d-%s.json", msg.Room, msg.SentAt.UnixNano(), uuid.NewString())
}
