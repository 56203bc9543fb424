package main

import (
	"github.com/quantfidential/trading-ecosystem/sequence-miner-go/cmd/commands"
)

func main() {
	commands.Execute()
}
