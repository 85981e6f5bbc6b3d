package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Match is a read-only projection of one on-chain match record. Bets are in
// wei. It is never mutated locally; callers re-query to refresh.
type Match struct {
	ID         *big.Int       `json:"id"`
	Player1    common.Address `json:"player1"`
	Player2    common.Address `json:"player2"`
	Player1Bet *big.Int       `json:"player1_bet"`
	Player2Bet *big.Int       `json:"player2_bet"`
	Complete   bool           `json:"complete"`
	Winner     *big.Int       `json:"winner"`
}

func (m Match) String() string {
	return fmt.Sprintf(
		"Match %s\nPlayer 1: %s (%s wei)\nPlayer 2: %s (%s wei)\nCompleted: %t\nWinner: player %s",
		m.ID, m.Player1.Hex(), m.Player1Bet, m.Player2.Hex(), m.Player2Bet, m.Complete, m.Winner,
	)
}
