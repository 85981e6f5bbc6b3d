package core

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Field bounds for inbound messages.
const (
	MaxRoomLen     = 30
	MaxUsernameLen = 20
)

// Message is the domain model for a relayed chat message. It is immutable
// once accepted: the hub copies it into subscriber queues and the side-effect
// sinks serialize it independently.
type Message struct {
	Room     string    `json:"room"`
	Username string    `json:"username"`
	Text     string    `json:"text"`
	Wallet   string    `json:"wallet"`
	SentAt   time.Time `json:"sent_at"`
}

// Validate checks field bounds and the wallet address format. It returns a
// *CoreError with ErrCodeValidation so transports can surface the reason
// to the submitter.
func (m Message) Validate() error {
	switch {
	case m.Room == "":
		return coreError(ErrCodeValidation, "room is required")
	case len(m.Room) > MaxRoomLen:
		return coreError(ErrCodeValidation, "room exceeds 30 characters")
	case m.Username == "":
		return coreError(ErrCodeValidation, "username is required")
	case len(m.Username) > MaxUsernameLen:
		return coreError(ErrCodeValidation, "username exceeds 20 characters")
	case !common.IsHexAddress(m.Wallet):
		return coreError(ErrCodeValidation, "wallet is not a valid hex address")
	}
	return nil
}
