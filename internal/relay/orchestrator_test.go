package relay

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/chainchat-dev/chainchat-server/internal/core"
)

type fakeMinter struct {
	mu      sync.Mutex
	wallets []string
	err     error
	gate    chan struct{} // when non-nil, Mint blocks until closed
}

func (f *fakeMinter) Mint(_ context.Context, wallet string) (string, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.wallets = append(f.wallets, wallet)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "0xtxhash", nil
}

func (f *fakeMinter) minted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.wallets...)
}

type fakeObjectSink struct {
	mu       sync.Mutex
	keys     []string
	payloads [][]byte
	err      error
}

func (f *fakeObjectSink) Put(_ context.Context, key string, payload []byte, contentType string) (string, error) {
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if contentType != snapshotContentType {
		return "", errors.New("unexpected content type " + contentType)
	}
	return "bucket/" + key, nil
}

type fakeContentSink struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeContentSink) Add(_ context.Context, payload []byte) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if len(payload) == 0 {
		return "", errors.New("empty payload")
	}
	return "bafyfakecid", nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes map[string][]bool
}

func (f *fakeRecorder) RecordEffect(effect string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.outcomes == nil {
		f.outcomes = make(map[string][]bool)
	}
	f.outcomes[effect] = append(f.outcomes[effect], ok)
}

func (f *fakeRecorder) recorded(effect string) []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.outcomes[effect]...)
}

type fixture struct {
	hub     *core.Hub
	minter  *fakeMinter
	objects *fakeObjectSink
	content *fakeContentSink
	orch    *Orchestrator
}

func newFixture() *fixture {
	logger := zerolog.New(nil)
	f := &fixture{
		hub:     core.NewHub(16),
		minter:  &fakeMinter{},
		objects: &fakeObjectSink{},
		content: &fakeContentSink{},
	}
	f.orch = NewOrchestrator(f.hub, f.minter, f.objects, f.content, time.Second, nil, &logger)
	return f
}

func testMessage() core.Message {
	return core.Message{
		Room:     "lobby",
		Username: "al",
		Text:     "hi",
		Wallet:   "0x0000000000000000000000000000000000000001",
	}
}

func TestIngestPublishesAndRunsAllEffects(t *testing.T) {
	f := newFixture()
	sub := f.hub.Subscribe()

	res, err := f.orch.Ingest(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if !res.Published {
		t.Fatal("message should have been published")
	}
	for name, effect := range map[string]EffectResult{
		EffectMint:     res.Mint,
		EffectSnapshot: res.Snapshot,
		EffectArchive:  res.Archive,
	} {
		if !effect.OK || effect.Ref == "" || effect.Error != "" {
			t.Fatalf("effect %s did not succeed: %+v", name, effect)
		}
	}

	select {
	case got := <-sub.C():
		if got.Text != "hi" || got.Room != "lobby" || got.SentAt.IsZero() {
			t.Fatalf("unexpected broadcast message: %+v", got)
		}
	default:
		t.Fatal("subscriber did not receive the message")
	}
	select {
	case extra := <-sub.C():
		t.Fatalf("duplicate delivery: %+v", extra)
	default:
	}

	if got := f.minter.minted(); len(got) != 1 || got[0] != testMessage().Wallet {
		t.Fatalf("mint attempted for %v", got)
	}
}

func TestIngestRejectsInvalidMessageBeforeAnything(t *testing.T) {
	f := newFixture()
	sub := f.hub.Subscribe()

	msg := testMessage()
	msg.Room = strings.Repeat("x", core.MaxRoomLen+1)

	if _, err := f.orch.Ingest(context.Background(), msg); err == nil {
		t.Fatal("expected validation error")
	}

	select {
	case got := <-sub.C():
		t.Fatalf("rejected message reached a subscriber: %+v", got)
	default:
	}
	if len(f.minter.minted()) != 0 || f.content.calls != 0 || len(f.objects.keys) != 0 {
		t.Fatal("side effects ran for a rejected message")
	}
	if f.hub.Published() != 0 {
		t.Fatal("rejected message was published")
	}
}

func TestIngestSingleFaultLeavesOthersIntact(t *testing.T) {
	boom := errors.New("backend down")

	cases := []struct {
		name   string
		inject func(*fixture)
		check  func(*testing.T, IngestResult)
	}{
		{
			name:   "mint fails",
			inject: func(f *fixture) { f.minter.err = boom },
			check: func(t *testing.T, res IngestResult) {
				if res.Mint.OK || res.Mint.Error == "" {
					t.Fatalf("mint should have failed: %+v", res.Mint)
				}
				if !res.Snapshot.OK || !res.Archive.OK {
					t.Fatalf("other effects affected: %+v", res)
				}
			},
		},
		{
			name:   "snapshot fails",
			inject: func(f *fixture) { f.objects.err = boom },
			check: func(t *testing.T, res IngestResult) {
				if res.Snapshot.OK {
					t.Fatalf("snapshot should have failed: %+v", res.Snapshot)
				}
				if !res.Mint.OK || !res.Archive.OK {
					t.Fatalf("other effects affected: %+v", res)
				}
			},
		},
		{
			name:   "archive fails",
			inject: func(f *fixture) { f.content.err = boom },
			check: func(t *testing.T, res IngestResult) {
				if res.Archive.OK {
					t.Fatalf("archive should have failed: %+v", res.Archive)
				}
				if !res.Mint.OK || !res.Snapshot.OK {
					t.Fatalf("other effects affected: %+v", res)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			sub := f.hub.Subscribe()
			tc.inject(f)

			res, err := f.orch.Ingest(context.Background(), testMessage())
			if err != nil {
				t.Fatalf("ingest: %v", err)
			}
			if !res.Published {
				t.Fatal("publish must be unaffected by effect failures")
			}
			tc.check(t, res)

			select {
			case <-sub.C():
			default:
				t.Fatal("broadcast delivery was affected by an effect failure")
			}
		})
	}
}

func TestIngestPublishesBeforeEffectsComplete(t *testing.T) {
	f := newFixture()
	f.minter.gate = make(chan struct{})
	sub := f.hub.Subscribe()

	done := make(chan IngestResult, 1)
	go func() {
		res, _ := f.orch.Ingest(context.Background(), testMessage())
		done <- res
	}()

	// The subscriber must see the message while the mint is still blocked.
	select {
	case got := <-sub.C():
		if got.Text != "hi" {
			t.Fatalf("unexpected message: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("delivery waited on a slow side effect")
	}

	close(f.minter.gate)
	res := <-done
	if !res.Mint.OK {
		t.Fatalf("mint should succeed after unblocking: %+v", res.Mint)
	}
}

func TestIngestEffectsSurviveCallerCancellation(t *testing.T) {
	f := newFixture()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.orch.Ingest(ctx, testMessage())
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !res.Mint.OK || !res.Snapshot.OK || !res.Archive.OK {
		t.Fatalf("effects aborted by caller cancellation: %+v", res)
	}
}

func TestIngestEncodeFailureRecordsSkippedEffects(t *testing.T) {
	orig := marshalMessage
	marshalMessage = func(any) ([]byte, error) { return nil, errors.New("encode boom") }
	t.Cleanup(func() { marshalMessage = orig })

	logger := zerolog.New(nil)
	rec := &fakeRecorder{}
	f := &fixture{
		hub:     core.NewHub(16),
		minter:  &fakeMinter{},
		objects: &fakeObjectSink{},
		content: &fakeContentSink{},
	}
	f.orch = NewOrchestrator(f.hub, f.minter, f.objects, f.content, time.Second, rec, &logger)
	sub := f.hub.Subscribe()

	res, err := f.orch.Ingest(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if !res.Published {
		t.Fatal("publish must be unaffected by an encode failure")
	}
	select {
	case <-sub.C():
	default:
		t.Fatal("broadcast delivery was affected by an encode failure")
	}
	if !res.Mint.OK {
		t.Fatalf("mint must still run: %+v", res.Mint)
	}
	if res.Snapshot.OK || res.Snapshot.Error == "" || res.Archive.OK || res.Archive.Error == "" {
		t.Fatalf("snapshot and archive should carry the encode error: %+v", res)
	}
	if len(f.objects.keys) != 0 || f.content.calls != 0 {
		t.Fatal("sinks were called without a payload")
	}

	// The recorder sees one outcome per effect, matching the result body.
	if got := rec.recorded(EffectMint); len(got) != 1 || !got[0] {
		t.Fatalf("mint outcomes: %v", got)
	}
	for _, effect := range []string{EffectSnapshot, EffectArchive} {
		if got := rec.recorded(effect); len(got) != 1 || got[0] {
			t.Fatalf("%s outcomes: %v", effect, got)
		}
	}
}

func TestSnapshotPayloadRoundTripsAndKeysAreUnique(t *testing.T) {
	f := newFixture()

	msg := testMessage()
	if _, err := f.orch.Ingest(context.Background(), msg); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if _, err := f.orch.Ingest(context.Background(), msg); err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	if len(f.objects.keys) != 2 || f.objects.keys[0] == f.objects.keys[1] {
		t.Fatalf("repeated messages must not collide: %v", f.objects.keys)
	}
	for _, key := range f.objects.keys {
		if !strings.HasPrefix(key, "messages/lobby/") || !strings.HasSuffix(key, ".json") {
			t.Fatalf("unexpected key shape: %s", key)
		}
	}

	var stored core.Message
	if err := json.Unmarshal(f.objects.payloads[0], &stored); err != nil {
		t.Fatalf("snapshot payload is not valid JSON: %v", err)
	}
	if stored.Room != msg.Room || stored.Username != msg.Username || stored.Wallet != msg.Wallet || stored.SentAt.IsZero() {
		t.Fatalf("snapshot payload lost fields: %+v", stored)
	}
}
