package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/chainchat-dev/chainchat-server/internal/chain"
	"github.com/chainchat-dev/chainchat-server/internal/config"
	"github.com/chainchat-dev/chainchat-server/internal/core"
	"github.com/chainchat-dev/chainchat-server/internal/metrics"
	"github.com/chainchat-dev/chainchat-server/internal/relay"
	"github.com/chainchat-dev/chainchat-server/internal/sink"
	transporthttp "github.com/chainchat-dev/chainchat-server/internal/transport/http"
)

// App wires together the hub, orchestrator, backends, and transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	hub := core.NewHub(cfg.QueueCapacity)
	m := metrics.New(hub)

	chainClient, err := chain.NewClient(cfg.Chain, logger)
	if err != nil {
		return nil, fmt.Errorf("init chain client: %w", err)
	}

	cred, err := chain.ParseCredential(cfg.Chain.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("parse chain credential: %w", err)
	}

	snapshots, err := sink.NewS3Sink(cfg.S3, logger)
	if err != nil {
		return nil, fmt.Errorf("init object sink: %w", err)
	}

	archive, err := sink.NewIPFSSink(cfg.IPFS, logger)
	if err != nil {
		return nil, fmt.Errorf("init archive sink: %w", err)
	}

	logger.Info().
		Str("contract", cfg.Chain.ContractAddress).
		Str("minter", cred.Address().Hex()).
		Str("bucket", cfg.S3.Bucket).
		Msg("backends initialized")

	minter := &serviceMinter{client: chainClient, cred: cred}
	orch := relay.NewOrchestrator(hub, minter, snapshots, archive, cfg.EffectTimeout, m, logger)
	server := transporthttp.NewServer(hub, orch, chainClient, m, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.hub.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		// Closing the hub first lets streaming sessions finish cleanly so
		// Shutdown is not stuck behind long-lived connections.
		a.log.Info().Msg("shutting down http server")
		a.hub.Close()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}

// serviceMinter binds the relay's mint effect to the chain client using the
// service credential supplied through configuration.
type serviceMinter struct {
	client *chain.Client
	cred   chain.Credential
}

func (m *serviceMinter) Mint(ctx context.Context, wallet string) (string, error) {
	receipt, err := m.client.Mint(ctx, m.cred, wallet)
	if err != nil {
		return "", err
	}
	return receipt.TxHash, nil
}
