package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"recordkit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
