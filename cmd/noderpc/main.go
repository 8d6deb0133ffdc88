package main

import (
	"os"

	"github.com/wagiedev/noderpc-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
