package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// main is the entry point for the application. It initializes the core
// application logic, builds the CLI interface, and executes the command
// provided by the user.
func main() {
	// Secrets such as GEMINI_API_KEY may live in a local .env file.
	_ = godotenv.Load()

	application := NewApp()
	cmd := BuildCLI(application)

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
