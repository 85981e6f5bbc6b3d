package sink

import (
	"bytes"
	"context"
	"fmt"
	"time"

	ipfsapi "github.com/ipfs/go-ipfs-api"
	"github.com/rs/zerolog"
)

// IPFSConfig points at an IPFS node's HTTP API.
type IPFSConfig struct {
	APIURL  string        `mapstructure:"api_url" yaml:"api_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// IPFSSink adds payloads to content-addressed storage. Writes are immutable
// and deduplicated by construction; there is no delete or update.
type IPFSSink struct {
	sh  *ipfsapi.Shell
	log *zerolog.Logger
}

// NewIPFSSink builds the sink. The shell API has no per-call context, so
// the configured timeout bounds each request instead.
func NewIPFSSink(cfg IPFSConfig, logger *zerolog.Logger) (*IPFSSink, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("ipfs: api_url is required")
	}

	sh := ipfsapi.NewShell(cfg.APIURL)
	if cfg.Timeout > 0 {
		sh.SetTimeout(cfg.Timeout)
	}
	return &IPFSSink{sh: sh, log: logger}, nil
}

// Add stores payload and returns its content identifier.
func (s *IPFSSink) Add(ctx context.Context, payload []byte) (string, error) {
	cid, err := s.sh.Add(bytes.NewReader(payload), ipfsapi.Pin(true))
	if err != nil {
		return "", fmt.Errorf("ipfs: add: %w", err)
	}

	s.log.Debug().Str("cid", cid).Int("bytes", len(payload)).Msg("archive stored")
	return cid, nil
}
