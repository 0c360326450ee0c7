package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/ziadkadry99/lexsearch/cmd"
)

func main() {
	// API keys may live in .env; a missing file is fine.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
