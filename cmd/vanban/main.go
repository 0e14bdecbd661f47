package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ngocdv/vanban/internal/cli"
)

func main() {
	// Load .env when present; existing environment variables win.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
