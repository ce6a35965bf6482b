package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
