package main

import (
	"os"

	"github.com/meme-bots/go-roundtrip/cmd/roundtrip/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
