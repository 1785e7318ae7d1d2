package main

import (
	"os"

	"fanfirst-engagement-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
