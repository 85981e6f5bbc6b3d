package http

import (
	"context"
	"errors"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chainchat-dev/chainchat-server/internal/chain"
	"github.com/chainchat-dev/chainchat-server/internal/core"
)

// ChainQuerier is the read-only slice of the chain client the transport
// needs.
type ChainQuerier interface {
	TotalMatches(ctx context.Context) (*big.Int, error)
	LifetimeValue(ctx context.Context) (*big.Int, error)
	MatchInfo(ctx context.Context, id *big.Int) (chain.Match, error)
}

// ChainHandlers serves unauthenticated contract reads.
type ChainHandlers struct {
	chain ChainQuerier
	log   *zerolog.Logger
}

// NewChainHandlers creates a new chain handlers instance.
func NewChainHandlers(querier ChainQuerier, logger *zerolog.Logger) *ChainHandlers {
	return &ChainHandlers{chain: querier, log: logger}
}

// TotalMatches reports the totalMatches counter.
// GET /api/chain/matches
func (h *ChainHandlers) TotalMatches(c *gin.Context) {
	total, err := h.chain.TotalMatches(c.Request.Context())
	if err != nil {
		h.chainError(c, err, "query total matches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_matches": total.String()})
}

// LifetimeValue reports the lifetimeValue counter in wei.
// GET /api/chain/lifetime-value
func (h *ChainHandlers) LifetimeValue(c *gin.Context) {
	value, err := h.chain.LifetimeValue(c.Request.Context())
	if err != nil {
		h.chainError(c, err, "query lifetime value")
		return
	}
	c.JSON(http.StatusOK, gin.H{"lifetime_value_wei": value.String()})
}

// Match reports one match record.
// GET /api/chain/matches/:id
func (h *ChainHandlers) Match(c *gin.Context) {
	id, ok := new(big.Int).SetString(c.Param("id"), 10)
	if !ok || id.Sign() < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid match id"})
		return
	}

	match, err := h.chain.MatchInfo(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrMatchNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "match not found", Code: core.ErrCodeMatchNotFound})
			return
		}
		h.chainError(c, err, "query match")
		return
	}
	c.JSON(http.StatusOK, match)
}

func (h *ChainHandlers) chainError(c *gin.Context, err error, action string) {
	h.log.Error().Err(err).Msg(action + " failed")
	c.JSON(http.StatusBadGateway, ErrorResponse{Error: "chain unavailable", Code: core.ErrCodeChainUnavailable})
}
