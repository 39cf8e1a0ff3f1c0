package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	cli "github.com/chitralabs/chitra/cmd/chitra"
	"github.com/chitralabs/chitra/internal/config"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	c, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cli.SetupRootCmd(c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
