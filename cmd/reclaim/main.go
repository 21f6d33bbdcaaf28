package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/reclaimio/cli/cmd/reclaim/cli"
)

func main() {
	// Optional .env for local development (RECLAIM_LOG_LEVEL etc.).
	_ = godotenv.Load()

	os.Exit(cli.Execute())
}
