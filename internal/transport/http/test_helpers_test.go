package http

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/chainchat-dev/chainchat-server/internal/chain"
	"github.com/chainchat-dev/chainchat-server/internal/config"
	"github.com/chainchat-dev/chainchat-server/internal/core"
	"github.com/chainchat-dev/chainchat-server/internal/relay"
)

type stubMinter struct{ err error }

func (s stubMinter) Mint(_ context.Context, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "0xstubtx", nil
}

type stubObjectSink struct{}

func (stubObjectSink) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "bucket/" + key, nil
}

type stubContentSink struct{}

func (stubContentSink) Add(_ context.Context, _ []byte) (string, error) {
	return "bafystubcid", nil
}

type stubChain struct {
	total *big.Int
	value *big.Int
	err   error
}

func (s stubChain) TotalMatches(_ context.Context) (*big.Int, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.total, nil
}

func (s stubChain) LifetimeValue(_ context.Context) (*big.Int, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.value, nil
}

func (s stubChain) MatchInfo(_ context.Context, id *big.Int) (chain.Match, error) {
	if s.err != nil {
		return chain.Match{}, s.err
	}
	if id.Cmp(s.total) >= 0 {
		return chain.Match{}, fmt.Errorf("match %s: %w", id, core.ErrMatchNotFound)
	}
	return chain.Match{
		ID:         new(big.Int).Set(id),
		Player1Bet: big.NewInt(100),
		Player2Bet: big.NewInt(100),
		Winner:     big.NewInt(0),
	}, nil
}

type testEnv struct {
	ts  *httptest.Server
	hub *core.Hub
}

func startTestServer(t *testing.T, minter relay.Minter, querier ChainQuerier) *testEnv {
	t.Helper()

	logger := zerolog.New(nil)
	hub := core.NewHub(16)
	t.Cleanup(hub.Close)

	orch := relay.NewOrchestrator(hub, minter, stubObjectSink{}, stubContentSink{}, time.Second, nil, &logger)

	cfg := config.Default()
	server := NewServer(hub, orch, querier, nil, &cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, hub: hub}
}

// waitSubscribers blocks until the hub has exactly n live subscriptions,
// so tests can publish only after stream clients are registered (or gone).
func (e *testEnv) waitSubscribers(t *testing.T, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.hub.Subscribers() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d subscribers, have %d", n, e.hub.Subscribers())
}

var errStub = errors.New("stub failure")
