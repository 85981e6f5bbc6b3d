package main

import "github.com/chainchat-dev/chainchat-server/cmd/relay/cmd"

func main() {
	cmd.Execute()
}
