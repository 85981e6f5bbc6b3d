package core

import (
	"testing"
	"time"
)

func mustReceive(t *testing.T, sub *Subscription) Message {
	t.Helper()

	select {
	case msg := <-sub.C():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("expected message not received")
		return Message{}
	}
}

func validMessage(text string) Message {
	return Message{
		Room:     "lobby",
		Username: "al",
		Text:     text,
		Wallet:   "0x0000000000000000000000000000000000000001",
	}
}
